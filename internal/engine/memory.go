package engine

import (
	bitmap "github.com/boljen/go-bitmap"

	"github.com/dargueta/fixedfs/internal/device"
)

// Dentry is an in-memory directory-entry node. Parent and NextSibling form
// the tree; NextSibling lists are head-inserted by AllocDentry, so on-disk
// order after a flush is newest-first, not insertion order.
type Dentry struct {
	Filename    string
	Parent      *Dentry
	NextSibling *Dentry
	Ino         int32
	// Inode is nil until ReadInode (or AllocInode, for newly created
	// dentries) resolves it. One-way: once non-nil, never cleared.
	Inode    *Inode
	FileType FileType
}

// Inode is the in-memory metadata record for one file or directory. Children
// is the head of the child dentry list for directories; Data holds the four
// in-memory data buffers for regular files. Directories keep no in-memory
// buffers of their own — their content is the serialized Children list.
type Inode struct {
	Ino           int32
	Size          int32
	SymlinkTarget string
	DirCount      int32
	FileType      FileType
	Dentry        *Dentry
	Children      *Dentry
	DataBlocks    [DataBlocksPerFile]int32
	// Data holds one buffer per entry in DataBlocks, each BlockSize bytes,
	// for regular files only.
	Data [DataBlocksPerFile][]byte
}

// Superblock is the mounted filesystem's root of all in-memory state: the
// driver handle, cached geometry, the two owned bitmap buffers, and the root
// dentry. Modeled as an explicit value rather than a package-level global so
// multiple independent mounts (e.g. in tests) never collide.
type Superblock struct {
	adapter *device.Adapter
	driver  device.Driver

	MaxInodes         int32
	MaxDataBlocks     int32
	InodeBitmapBlocks int32
	InodeBitmapOffset int64
	DataBitmapBlocks  int32
	DataBitmapOffset  int64
	InodeTableOffset  int64
	DataRegionOffset  int64
	UsageCounter      int32

	// BlockSize is B, the logical block size in bytes (2 * I/O unit size).
	BlockSize int64

	InodeBitmap bitmap.Bitmap
	DataBitmap  bitmap.Bitmap

	Mounted bool
	Root    *Dentry
}

// newDentry creates a detached dentry with no inode attached, per spec
// section 3's lifecycle ("Dentries are created by new_dentry (detached, no
// inode)").
func newDentry(filename string, parent *Dentry, fileType FileType) *Dentry {
	return &Dentry{
		Filename: filename,
		Parent:   parent,
		FileType: fileType,
	}
}

// dentriesPerBlock is the maximum number of dentry records that fit in one
// logical block.
func (sb *Superblock) dentriesPerBlock() int {
	return int(sb.BlockSize) / dentryRecordSize()
}
