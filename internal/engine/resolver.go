package engine

import "strings"

// CalcLevel implements calc_lvl (spec section 4.5 / 8.4): the number of '/'
// characters in path, except that the root path short-circuits to 0.
func CalcLevel(path string) int {
	if path == "/" {
		return 0
	}
	return strings.Count(path, "/")
}

// GetFilename implements get_fname (spec section 4.5 / 8.4): the substring
// after the last '/'.
func GetFilename(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// GetDentry implements get_dentry: the index-th child of inode in
// sibling-list order (newest-first, since AllocDentry head-inserts), or nil
// if index is out of range.
func GetDentry(inode *Inode, index int) *Dentry {
	cursor := inode.Children
	for i := 0; i < index && cursor != nil; i++ {
		cursor = cursor.NextSibling
	}
	return cursor
}

// findChild linearly scans a directory's child list for an exact,
// equal-length filename match. The original compares only the first
// strlen(component) bytes, which makes "foo" match "foobar"; this corrects
// that per spec section 9.
func findChild(inode *Inode, name string) *Dentry {
	for cursor := inode.Children; cursor != nil; cursor = cursor.NextSibling {
		if cursor.Filename == name {
			return cursor
		}
	}
	return nil
}

// Lookup implements lookup (spec section 4.5): tokenizes path and walks the
// cached tree component by component, forcing lazy ReadInode loads as
// needed. It never errors — callers decide what a miss or a non-directory
// traversal means. Returns (dentry, is_found, is_root).
func (sb *Superblock) Lookup(path string) (*Dentry, bool, bool) {
	if path == "/" {
		return sb.Root, true, true
	}

	components := strings.Split(strings.Trim(path, "/"), "/")
	cursor := sb.Root

	for _, component := range components {
		if cursor.Inode == nil {
			if _, err := sb.ReadInode(cursor, cursor.Ino); err != nil {
				return cursor, false, false
			}
		}

		if cursor.Inode.FileType != FileTypeDirectory {
			// Path passes through a non-directory.
			return cursor, false, false
		}

		child := findChild(cursor.Inode, component)
		if child == nil {
			return cursor, false, false
		}
		cursor = child
	}

	if cursor.Inode == nil {
		if _, err := sb.ReadInode(cursor, cursor.Ino); err != nil {
			return cursor, false, false
		}
	}
	return cursor, true, false
}
