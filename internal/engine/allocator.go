package engine

import "github.com/dargueta/fixedfs"

// bitmapGetFirstClear performs the first-fit scan directly against a
// go-bitmap instance, per spec section 4.3's "byte-by-byte, then bit 0..7
// within each byte" contract. Iterating bit indices in increasing order
// produces the same result as the byte/bit-within-byte walk the spec
// describes, since go-bitmap's bit i is bit (i%8) of byte (i/8).
func bitmapGetFirstClear(get func(int) bool, limit int) int {
	for i := 0; i < limit; i++ {
		if !get(i) {
			return i
		}
	}
	return -1
}

// AllocInode implements alloc_inode (spec section 4.3): a first-fit scan of
// the inode bitmap, followed by a first-fit scan of the data bitmap for
// DataBlocksPerFile blocks. If fewer than DataBlocksPerFile data blocks are
// available, every partial reservation made during this call — the data bits
// already set and the inode bit — is rolled back before returning NoSpace.
// This rollback is a correction of the original's bug (spec section 9: the
// source does not undo partial data-bitmap reservations on failure).
func (sb *Superblock) AllocInode(dentry *Dentry) (*Inode, error) {
	inoIndex := bitmapGetFirstClear(func(i int) bool { return sb.InodeBitmap.Get(i) }, int(sb.MaxInodes))
	if inoIndex < 0 {
		return nil, fixedfs.ErrNoSpace.WithMessage("no free inodes")
	}
	sb.InodeBitmap.Set(inoIndex, true)

	var dataBlocks [DataBlocksPerFile]int32
	reserved := 0
	for reserved < DataBlocksPerFile {
		blockIndex := bitmapGetFirstClear(func(i int) bool { return sb.DataBitmap.Get(i) }, int(sb.MaxDataBlocks))
		if blockIndex < 0 {
			break
		}
		sb.DataBitmap.Set(blockIndex, true)
		dataBlocks[reserved] = int32(blockIndex)
		reserved++
	}

	if reserved < DataBlocksPerFile {
		// Roll back every bit this call set: the partial data reservation and
		// the inode bit.
		for i := 0; i < reserved; i++ {
			sb.DataBitmap.Set(int(dataBlocks[i]), false)
		}
		sb.InodeBitmap.Set(inoIndex, false)
		return nil, fixedfs.ErrNoSpace.WithMessage("not enough free data blocks for new inode")
	}

	inode := &Inode{
		Ino:        int32(inoIndex),
		FileType:   dentry.FileType,
		Dentry:     dentry,
		DataBlocks: dataBlocks,
	}

	if inode.FileType == FileTypeRegular {
		for i := range inode.Data {
			inode.Data[i] = make([]byte, sb.BlockSize)
		}
	}

	dentry.Inode = inode
	dentry.Ino = inode.Ino
	sb.UsageCounter++
	return inode, nil
}

// AllocDentry implements alloc_dentry (spec section 4.3): head-insert dentry
// into inode's child list and return the new child count. Constant time; no
// ordering guarantee on iteration (newest-first, per spec section 5 and 9).
func (sb *Superblock) AllocDentry(inode *Inode, dentry *Dentry) int32 {
	dentry.NextSibling = inode.Children
	inode.Children = dentry
	inode.DirCount++
	return inode.DirCount
}

// NewDentry creates a detached dentry (no inode attached) as a child of
// parent, per spec section 3's new_dentry.
func NewDentry(filename string, parent *Dentry, fileType FileType) *Dentry {
	return newDentry(filename, parent, fileType)
}
