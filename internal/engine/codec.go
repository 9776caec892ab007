package engine

import (
	"github.com/noxer/bytewriter"

	"github.com/dargueta/fixedfs"
)

// SyncInode implements sync_inode (spec section 4.4): a recursive
// depth-first flush starting from inode. The inode record is written first,
// then — for directories — each child's dentry record, recursing into any
// child whose Inode has already been touched in memory before moving on to
// the next sibling. Regular files flush their four in-memory data buffers;
// symlinks write nothing beyond the inode record itself.
func (sb *Superblock) SyncInode(inode *Inode) error {
	rec := inodeRecord{
		Ino:         inode.Ino,
		Size:        inode.Size,
		DentryCount: inode.DirCount,
		FileType:    int32(inode.FileType),
		DataBlocks:  inode.DataBlocks,
	}
	putPaddedName(rec.SymlinkTarget[:], inode.SymlinkTarget)

	data, err := marshalFixed(&rec)
	if err != nil {
		return err
	}

	offset := sb.InodeTableOffset + int64(inode.Ino)*sb.BlockSize
	if err := sb.adapter.WriteAt(offset, data); err != nil {
		return fixedfs.ErrIO.Wrap(err)
	}

	switch inode.FileType {
	case FileTypeDirectory:
		return sb.syncDirectoryData(inode)
	case FileTypeRegular:
		for k := 0; k < DataBlocksPerFile; k++ {
			blockOffset := sb.DataRegionOffset + int64(inode.DataBlocks[k])*sb.BlockSize
			if err := sb.adapter.WriteAt(blockOffset, inode.Data[k]); err != nil {
				return fixedfs.ErrIO.Wrap(err)
			}
		}
	}
	// Symlinks persist only the target path, already in the inode record.
	return nil
}

// syncDirectoryData walks inode's child dentry list, packing consecutive
// dentry records into each of the four data blocks in turn. It uses the
// data-region base for every write — the original's bug of writing directory
// data at the inode-table base is NOT reproduced here (spec section 4.4,
// "important asymmetry").
func (sb *Superblock) syncDirectoryData(inode *Inode) error {
	cursor := inode.Children
	perBlock := sb.dentriesPerBlock()

	for k := 0; k < DataBlocksPerFile && cursor != nil; k++ {
		buf := make([]byte, sb.BlockSize)
		writer := bytewriter.New(buf)

		for count := 0; count < perBlock && cursor != nil; count++ {
			rec := dentryRecord{
				FileType:  int32(cursor.FileType),
				TargetIno: cursor.Ino,
			}
			putPaddedName(rec.Filename[:], cursor.Filename)

			recBytes, err := marshalFixed(&rec)
			if err != nil {
				return err
			}
			if _, err := writer.Write(recBytes); err != nil {
				return fixedfs.ErrIO.Wrap(err)
			}

			if cursor.Inode != nil {
				if err := sb.SyncInode(cursor.Inode); err != nil {
					return err
				}
			}
			cursor = cursor.NextSibling
		}

		blockOffset := sb.DataRegionOffset + int64(inode.DataBlocks[k])*sb.BlockSize
		if err := sb.adapter.WriteAt(blockOffset, buf); err != nil {
			return fixedfs.ErrIO.Wrap(err)
		}
	}
	return nil
}

// ReadInode implements read_inode (spec section 4.4): loads the on-disk
// inode record for ino, attaches it to dentry, and for directories,
// lazily creates (but does not resolve) child dentries from the serialized
// dentry records. Both this function and SyncInode use the data-region base
// for directory data, unlike the original's writer.
func (sb *Superblock) ReadInode(dentry *Dentry, ino int32) (*Inode, error) {
	if ino < 0 || ino >= sb.MaxInodes {
		return nil, fixedfs.ErrInvalidArgument.WithMessage("inode number out of range")
	}

	offset := sb.InodeTableOffset + int64(ino)*sb.BlockSize
	data, err := sb.adapter.ReadAt(offset, inodeRecordSize())
	if err != nil {
		return nil, fixedfs.ErrIO.Wrap(err)
	}

	var rec inodeRecord
	if err := unmarshalFixed(data, &rec); err != nil {
		return nil, err
	}

	inode := &Inode{
		Ino:           rec.Ino,
		Size:          rec.Size,
		SymlinkTarget: getPaddedName(rec.SymlinkTarget[:]),
		FileType:      FileType(rec.FileType),
		DataBlocks:    rec.DataBlocks,
		Dentry:        dentry,
	}
	dentry.Inode = inode
	dentry.Ino = inode.Ino

	switch inode.FileType {
	case FileTypeDirectory:
		if err := sb.readDirectoryData(inode, dentry, rec.DentryCount); err != nil {
			return nil, err
		}
	case FileTypeRegular:
		for k := 0; k < DataBlocksPerFile; k++ {
			blockOffset := sb.DataRegionOffset + int64(inode.DataBlocks[k])*sb.BlockSize
			buf, err := sb.adapter.ReadAt(blockOffset, int(sb.BlockSize))
			if err != nil {
				return nil, fixedfs.ErrIO.Wrap(err)
			}
			inode.Data[k] = buf
		}
	}

	return inode, nil
}

// readDirectoryData reads totalEntries dentry records across the four data
// blocks in order, creating unresolved child dentries and head-inserting
// each via AllocDentry. The read cursor advances by one record at a time and
// moves to the next data block when the current one is exhausted.
func (sb *Superblock) readDirectoryData(inode *Inode, parent *Dentry, totalEntries int32) error {
	perBlock := sb.dentriesPerBlock()
	recSize := dentryRecordSize()
	remaining := int(totalEntries)

	for k := 0; k < DataBlocksPerFile && remaining > 0; k++ {
		blockOffset := sb.DataRegionOffset + int64(inode.DataBlocks[k])*sb.BlockSize
		buf, err := sb.adapter.ReadAt(blockOffset, int(sb.BlockSize))
		if err != nil {
			return fixedfs.ErrIO.Wrap(err)
		}

		entriesInBlock := perBlock
		if remaining < entriesInBlock {
			entriesInBlock = remaining
		}

		for i := 0; i < entriesInBlock; i++ {
			var rec dentryRecord
			if err := unmarshalFixed(buf[i*recSize:(i+1)*recSize], &rec); err != nil {
				return err
			}

			child := newDentry(getPaddedName(rec.Filename[:]), parent, FileType(rec.FileType))
			child.Ino = rec.TargetIno
			sb.AllocDentry(inode, child)
		}
		remaining -= entriesInBlock
	}
	return nil
}
