// Package engine implements the on-disk storage engine: the superblock and
// bitmap layout, the first-fit allocator, the in-memory inode/dentry cache
// with lazy load and recursive flush, and the path resolver.
package engine

import (
	"bytes"
	"encoding/binary"

	"github.com/dargueta/fixedfs"
)

// MagicNumber identifies a formatted device.
const MagicNumber uint32 = 0x00000403

// Fixed geometry constants (spec section 3).
const (
	SuperblockBlocks  = 1
	InodeBitmapBlocks = 1
	DataBitmapBlocks  = 1
	MaxInodes         = 512
	MaxDataBlocks     = 2048

	// DataBlocksPerFile is the number of logical data blocks every inode
	// reserves at creation, regular file or not.
	DataBlocksPerFile = 4

	// MaxFilenameLength is the longest filename storable in a dentry record;
	// one byte is reserved for implicit NUL termination.
	MaxFilenameLength = 127

	// nameFieldSize is the on-disk width of a NUL-padded name field (dentry
	// filenames and symlink targets share this width).
	nameFieldSize = 128
)

// FileType tags what kind of object an inode describes.
type FileType int32

const (
	FileTypeRegular FileType = iota
	FileTypeDirectory
	FileTypeSymlink
)

// superblockRecord is the bit-exact on-disk superblock, fixed at 32-bit
// little-endian signed integers per spec section 3.
type superblockRecord struct {
	Magic             uint32
	UsageCounter      int32
	MaxInodes         int32
	MaxDataBlocks     int32
	InodeBitmapBlocks int32
	InodeBitmapOffset int32
	DataBitmapBlocks  int32
	DataBitmapOffset  int32
	InodeTableOffset  int32
	DataRegionOffset  int32
}

// inodeRecord is the bit-exact on-disk inode record.
type inodeRecord struct {
	Ino           int32
	Size          int32
	SymlinkTarget [nameFieldSize]byte
	DentryCount   int32
	FileType      int32
	DataBlocks    [DataBlocksPerFile]int32
}

// dentryRecord is the bit-exact on-disk directory-entry record.
type dentryRecord struct {
	Filename  [nameFieldSize]byte
	FileType  int32
	TargetIno int32
}

func marshalFixed(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, fixedfs.ErrIO.WithMessage("failed to serialize fixed-width record").Wrap(err)
	}
	return buf.Bytes(), nil
}

func unmarshalFixed(data []byte, v any) error {
	reader := bytes.NewReader(data)
	if err := binary.Read(reader, binary.LittleEndian, v); err != nil {
		return fixedfs.ErrIO.WithMessage("failed to deserialize fixed-width record").Wrap(err)
	}
	return nil
}

// putPaddedName copies s into a fixed-width NUL-padded field. A string longer
// than the field is truncated to the field's width rather than overflowing;
// callers do not check the length beforehand.
func putPaddedName(field []byte, s string) {
	n := copy(field, s)
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}

// getPaddedName reads a NUL-padded field back into a Go string, stopping at
// the first NUL byte.
func getPaddedName(field []byte) string {
	end := bytes.IndexByte(field, 0)
	if end < 0 {
		end = len(field)
	}
	return string(field[:end])
}

func dentryRecordSize() int {
	return nameFieldSize + 4 + 4
}

func inodeRecordSize() int {
	return 4 + 4 + nameFieldSize + 4 + 4 + 4*DataBlocksPerFile
}

func superblockRecordSize() int {
	return 4 * 10
}
