package engine

import (
	bitmap "github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/fixedfs"
	"github.com/dargueta/fixedfs/internal/device"
)

// RootInode is the fixed inode number of the root directory.
const RootInode int32 = 0

func bitmapByteSize(bits int32) int {
	return int((bits + 7) / 8)
}

// Mount implements the mount lifecycle (spec section 4.7) over an
// already-opened driver: derive B from the I/O unit size, read the superblock, and either populate a
// fresh layout (magic absent) or load the existing one. Either way it ends by
// reading the root inode and marking the superblock mounted.
func Mount(driver device.Driver) (*Superblock, error) {
	adapter := device.NewAdapter(driver)

	superblockData, err := adapter.ReadAt(0, superblockRecordSize())
	if err != nil {
		return nil, fixedfs.ErrIO.Wrap(err)
	}

	var rec superblockRecord
	if err := unmarshalFixed(superblockData, &rec); err != nil {
		return nil, err
	}

	sb := &Superblock{
		adapter:   adapter,
		driver:    driver,
		BlockSize: adapter.BlockSize(),
	}

	isInit := rec.Magic != MagicNumber
	if isInit {
		sb.MaxInodes = MaxInodes
		sb.MaxDataBlocks = MaxDataBlocks
		sb.InodeBitmapBlocks = InodeBitmapBlocks
		sb.DataBitmapBlocks = DataBitmapBlocks
		sb.InodeBitmapOffset = sb.BlockSize
		sb.DataBitmapOffset = 2 * sb.BlockSize
		sb.InodeTableOffset = 3 * sb.BlockSize
		// Bug fix (spec section 9): data_offset MUST be derived from the
		// inode-table base, not the inode-bitmap base; the original is 2*B
		// too low because it adds MaxInodes blocks to map_inode_offset
		// instead of inode_offset.
		sb.DataRegionOffset = sb.InodeTableOffset + int64(sb.MaxInodes)*sb.BlockSize
		sb.UsageCounter = 0
	} else {
		sb.MaxInodes = rec.MaxInodes
		sb.MaxDataBlocks = rec.MaxDataBlocks
		sb.InodeBitmapBlocks = rec.InodeBitmapBlocks
		sb.DataBitmapBlocks = rec.DataBitmapBlocks
		sb.InodeBitmapOffset = int64(rec.InodeBitmapOffset)
		sb.DataBitmapOffset = int64(rec.DataBitmapOffset)
		sb.InodeTableOffset = int64(rec.InodeTableOffset)
		sb.DataRegionOffset = int64(rec.DataRegionOffset)
		sb.UsageCounter = rec.UsageCounter
	}

	sb.InodeBitmap = bitmap.New(int(sb.MaxInodes))
	sb.DataBitmap = bitmap.New(int(sb.MaxDataBlocks))

	if !isInit {
		inodeBitmapBytes, err := adapter.ReadAt(sb.InodeBitmapOffset, bitmapByteSize(sb.MaxInodes))
		if err != nil {
			return nil, fixedfs.ErrIO.Wrap(err)
		}
		copy(sb.InodeBitmap, inodeBitmapBytes)

		dataBitmapBytes, err := adapter.ReadAt(sb.DataBitmapOffset, bitmapByteSize(sb.MaxDataBlocks))
		if err != nil {
			return nil, fixedfs.ErrIO.Wrap(err)
		}
		copy(sb.DataBitmap, dataBitmapBytes)
	}

	rootDentry := newDentry("/", nil, FileTypeDirectory)
	rootDentry.Ino = RootInode

	if isInit {
		rootInode, err := sb.AllocInode(rootDentry)
		if err != nil {
			return nil, err
		}
		if err := sb.SyncInode(rootInode); err != nil {
			return nil, err
		}
		if err := sb.writeSuperblockAndBitmaps(); err != nil {
			return nil, err
		}
	}

	if _, err := sb.ReadInode(rootDentry, RootInode); err != nil {
		return nil, err
	}

	sb.Root = rootDentry
	sb.Mounted = true
	return sb, nil
}

// writeSuperblockAndBitmaps persists the superblock record and both bitmap
// buffers to their fixed offsets. Used both by Unmount and, for the
// freshly-initialized case, immediately at Mount so a crash between mount and
// umount still leaves a recognizable filesystem, and so a device can be
// re-mounted without an intervening umount (spec section 8.6, "mount
// detect").
func (sb *Superblock) writeSuperblockAndBitmaps() error {
	rec := superblockRecord{
		Magic:             MagicNumber,
		UsageCounter:      sb.UsageCounter,
		MaxInodes:         sb.MaxInodes,
		MaxDataBlocks:     sb.MaxDataBlocks,
		InodeBitmapBlocks: sb.InodeBitmapBlocks,
		InodeBitmapOffset: int32(sb.InodeBitmapOffset),
		DataBitmapBlocks:  sb.DataBitmapBlocks,
		DataBitmapOffset:  int32(sb.DataBitmapOffset),
		InodeTableOffset:  int32(sb.InodeTableOffset),
		DataRegionOffset:  int32(sb.DataRegionOffset),
	}

	data, err := marshalFixed(&rec)
	if err != nil {
		return err
	}
	if err := sb.adapter.WriteAt(0, data); err != nil {
		return fixedfs.ErrIO.Wrap(err)
	}
	if err := sb.adapter.WriteAt(sb.InodeBitmapOffset, []byte(sb.InodeBitmap)); err != nil {
		return fixedfs.ErrIO.Wrap(err)
	}
	if err := sb.adapter.WriteAt(sb.DataBitmapOffset, []byte(sb.DataBitmap)); err != nil {
		return fixedfs.ErrIO.Wrap(err)
	}
	return nil
}

// Unmount implements the unmount lifecycle (spec section 4.7): recursively
// flush the dentry tree, write the superblock and bitmaps, then close the
// driver. It is a no-op (idempotent) if the superblock is not mounted. The
// three teardown steps (flushing the tree, writing the superblock and both
// bitmaps, closing the driver) are accumulated with go-multierror instead of
// aborting at the first failure, so a failure writing the data bitmap
// doesn't hide one that occurred flushing the inode tree. The second step
// writes the superblock, then the inode bitmap, then the data bitmap, and
// stops at the first of those writes that fails.
func (sb *Superblock) Unmount() error {
	if !sb.Mounted {
		return nil
	}

	var result *multierror.Error

	if sb.Root != nil && sb.Root.Inode != nil {
		if err := sb.SyncInode(sb.Root.Inode); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := sb.writeSuperblockAndBitmaps(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := sb.driver.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	sb.Mounted = false
	return result.ErrorOrNil()
}
