package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fixedfs/testutil"
)

const testIOUnitSize = 512

// totalIOUnitsForFixedLayout returns the number of I/O units a device needs
// to hold the whole fixed layout (superblock + both bitmaps + inode table +
// data region) at B = 2*testIOUnitSize.
func totalIOUnitsForFixedLayout() uint {
	totalBlocks := uint(SuperblockBlocks + InodeBitmapBlocks + DataBitmapBlocks + MaxInodes + MaxDataBlocks)
	return totalBlocks * 2
}

func mountFresh(t *testing.T) (*Superblock, []byte) {
	backing := testutil.NewBlankDevice(testIOUnitSize, totalIOUnitsForFixedLayout())
	driver := testutil.NewMemoryDriver(t, backing, testIOUnitSize)

	sb, err := Mount(driver)
	require.NoError(t, err)
	return sb, backing
}

func TestMount_FreshDevice_InitializesLayout(t *testing.T) {
	sb, backing := mountFresh(t)

	assert.True(t, sb.Mounted)
	assert.NotNil(t, sb.Root)
	assert.EqualValues(t, 0, sb.Root.Ino)
	require.NotNil(t, sb.Root.Inode)
	assert.Equal(t, FileTypeDirectory, sb.Root.Inode.FileType)
	assert.EqualValues(t, 0, sb.Root.Inode.DirCount)
	assert.EqualValues(t, []int32{0, 1, 2, 3}, sb.Root.Inode.DataBlocks[:])

	assert.True(t, sb.InodeBitmap.Get(0), "root inode bit must be set")
	for i := 0; i < 4; i++ {
		assert.True(t, sb.DataBitmap.Get(i), "root's reserved data blocks must be set")
	}

	var rec superblockRecord
	data := backing[:superblockRecordSize()]
	require.NoError(t, unmarshalFixed(data, &rec))
	assert.EqualValues(t, MagicNumber, rec.Magic)
}

func TestMount_SecondMountDoesNotReinitialize(t *testing.T) {
	sb, backing := mountFresh(t)
	require.NoError(t, sb.Unmount())

	driver2 := testutil.NewMemoryDriver(t, backing, testIOUnitSize)

	sb2, err := Mount(driver2)
	require.NoError(t, err)
	defer sb2.Unmount()

	assert.EqualValues(t, sb.InodeTableOffset, sb2.InodeTableOffset)
	assert.EqualValues(t, sb.DataRegionOffset, sb2.DataRegionOffset)
	assert.True(t, sb2.InodeBitmap.Get(0))
}

func TestAllocInode_MonotonicallyIncreasingInodeNumbers(t *testing.T) {
	sb, _ := mountFresh(t)

	var lastIno int32 = sb.Root.Inode.Ino
	for i := 0; i < 5; i++ {
		d := NewDentry("child", sb.Root, FileTypeDirectory)
		inode, err := sb.AllocInode(d)
		require.NoError(t, err)
		assert.Greater(t, inode.Ino, lastIno)
		lastIno = inode.Ino
	}
}

func TestAllocInode_CapacityExhaustion(t *testing.T) {
	sb, _ := mountFresh(t)

	// Root already holds inode 0 and its 4 data blocks. MaxInodes - 1 more
	// should succeed (each reserving 4 data blocks), exhausting both the
	// inode bitmap and the data bitmap at exactly the same point.
	var allocated int
	for i := 0; i < MaxInodes*2; i++ {
		d := NewDentry("f", nil, FileTypeRegular)
		_, err := sb.AllocInode(d)
		if err != nil {
			break
		}
		allocated++
	}

	assert.Equal(t, MaxInodes-1, allocated)

	// The next allocation must still fail, and must not have left partial
	// bitmap state behind (rollback correctness).
	before := append([]byte(nil), []byte(sb.DataBitmap)...)
	d := NewDentry("overflow", nil, FileTypeRegular)
	_, err := sb.AllocInode(d)
	assert.Error(t, err)
	assert.Equal(t, before, []byte(sb.DataBitmap))
}

func TestAllocDentry_HeadInsertOrder(t *testing.T) {
	sb, _ := mountFresh(t)

	names := []string{"a", "b", "c"}
	for _, name := range names {
		d := NewDentry(name, sb.Root, FileTypeRegular)
		inode, err := sb.AllocInode(d)
		require.NoError(t, err)
		sb.AllocDentry(sb.Root.Inode, d)
		_ = inode
	}

	// Head-insert means the most recently added child is first.
	assert.Equal(t, "c", sb.Root.Inode.Children.Filename)
	assert.Equal(t, "b", sb.Root.Inode.Children.NextSibling.Filename)
	assert.Equal(t, "a", sb.Root.Inode.Children.NextSibling.NextSibling.Filename)
	assert.EqualValues(t, 3, sb.Root.Inode.DirCount)
}

func TestSyncAndReadInode_RegularFileDataRoundTrips(t *testing.T) {
	sb, backing := mountFresh(t)

	dentry := NewDentry("payload", sb.Root, FileTypeRegular)
	inode, err := sb.AllocInode(dentry)
	require.NoError(t, err)
	sb.AllocDentry(sb.Root.Inode, dentry)

	pattern := make([]byte, sb.BlockSize)
	for i := range pattern {
		pattern[i] = byte(i % 251)
	}
	for k := 0; k < DataBlocksPerFile; k++ {
		copy(inode.Data[k], pattern)
	}
	inode.Size = int32(DataBlocksPerFile) * int32(sb.BlockSize)

	require.NoError(t, sb.SyncInode(sb.Root.Inode))

	driver2 := testutil.NewMemoryDriver(t, backing, testIOUnitSize)
	sb2, err := Mount(driver2)
	require.NoError(t, err)

	found, isFound, isRoot := sb2.Lookup("/payload")
	require.True(t, isFound)
	assert.False(t, isRoot)
	require.NotNil(t, found.Inode)

	for k := 0; k < DataBlocksPerFile; k++ {
		assert.Equal(t, pattern, found.Inode.Data[k])
	}
}

func TestLookup_CreateChildDirectoryThenFindAfterRemount(t *testing.T) {
	sb, backing := mountFresh(t)

	fooDentry := NewDentry("foo", sb.Root, FileTypeDirectory)
	_, err := sb.AllocInode(fooDentry)
	require.NoError(t, err)
	sb.AllocDentry(sb.Root.Inode, fooDentry)

	require.NoError(t, sb.SyncInode(sb.Root.Inode))
	require.NoError(t, sb.Unmount())

	driver2 := testutil.NewMemoryDriver(t, backing, testIOUnitSize)
	sb2, err := Mount(driver2)
	require.NoError(t, err)

	found, isFound, isRoot := sb2.Lookup("/foo")
	require.True(t, isFound)
	assert.False(t, isRoot)
	require.NotNil(t, found.Inode)
	assert.EqualValues(t, 1, found.Inode.Ino)
	assert.Equal(t, FileTypeDirectory, found.Inode.FileType)
}

func TestLookup_MissReturnsParent(t *testing.T) {
	sb, _ := mountFresh(t)

	dentry, isFound, isRoot := sb.Lookup("/bar")
	assert.False(t, isFound)
	assert.False(t, isRoot)
	assert.Same(t, sb.Root, dentry)
}

func TestLookup_TraversalThroughRegularFileFails(t *testing.T) {
	sb, _ := mountFresh(t)

	fileDentry := NewDentry("f", sb.Root, FileTypeRegular)
	_, err := sb.AllocInode(fileDentry)
	require.NoError(t, err)
	sb.AllocDentry(sb.Root.Inode, fileDentry)

	dentry, isFound, isRoot := sb.Lookup("/f/x")
	assert.False(t, isFound)
	assert.False(t, isRoot)
	assert.Equal(t, "f", dentry.Filename)
}

func TestLookup_RootShortCircuits(t *testing.T) {
	sb, _ := mountFresh(t)

	dentry, isFound, isRoot := sb.Lookup("/")
	assert.True(t, isFound)
	assert.True(t, isRoot)
	assert.Same(t, sb.Root, dentry)
}

func TestCalcLevel(t *testing.T) {
	assert.Equal(t, 0, CalcLevel("/"))
	assert.Equal(t, 1, CalcLevel("/a"))
	assert.Equal(t, 3, CalcLevel("/a/b/c"))
}

func TestGetFilename(t *testing.T) {
	assert.Equal(t, "c", GetFilename("/a/b/c"))
	assert.Equal(t, "", GetFilename("/"))
}

func TestGetDentry_ReturnsChildInSiblingOrder(t *testing.T) {
	sb, _ := mountFresh(t)

	for _, name := range []string{"a", "b"} {
		d := NewDentry(name, sb.Root, FileTypeRegular)
		_, err := sb.AllocInode(d)
		require.NoError(t, err)
		sb.AllocDentry(sb.Root.Inode, d)
	}

	assert.Equal(t, "b", GetDentry(sb.Root.Inode, 0).Filename)
	assert.Equal(t, "a", GetDentry(sb.Root.Inode, 1).Filename)
	assert.Nil(t, GetDentry(sb.Root.Inode, 2))
}

func TestUnmount_IdempotentSecondCallIsNoOp(t *testing.T) {
	sb, _ := mountFresh(t)
	require.NoError(t, sb.Unmount())
	assert.False(t, sb.Mounted)
	require.NoError(t, sb.Unmount())
}

func TestBitmapConsistency_AfterAllocations(t *testing.T) {
	sb, _ := mountFresh(t)

	liveInodes := 1 // root
	for i := 0; i < 10; i++ {
		d := NewDentry("f", nil, FileTypeRegular)
		_, err := sb.AllocInode(d)
		require.NoError(t, err)
		liveInodes++
	}

	setInodeBits := 0
	for i := 0; i < MaxInodes; i++ {
		if sb.InodeBitmap.Get(i) {
			setInodeBits++
		}
	}
	setDataBits := 0
	for i := 0; i < MaxDataBlocks; i++ {
		if sb.DataBitmap.Get(i) {
			setDataBits++
		}
	}

	assert.Equal(t, liveInodes, setInodeBits)
	assert.Equal(t, liveInodes*DataBlocksPerFile, setDataBits)
}
