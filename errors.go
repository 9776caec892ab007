// Package fixedfs implements a small fixed-layout block-addressed file system
// engine: superblock, bitmap allocator, inode/dentry cache, and path resolver.
package fixedfs

import (
	"fmt"
	"syscall"
)

// DriverError is the error type engine operations return (Unmount instead
// combines the failures of its teardown steps into a *multierror.Error,
// whose entries are DriverErrors). It carries an
// errno-equivalent code (see Errno) so callers can compare against the
// sentinels below with errors.Is, plus an optional human-readable message and
// wrapped cause.
type DriverError interface {
	error
	// Errno returns the POSIX error code this failure corresponds to.
	Errno() syscall.Errno
	// WithMessage returns a copy of this error with additional context appended
	// to its message.
	WithMessage(message string) DriverError
	// Wrap returns a copy of this error with err recorded as its cause, visible
	// to errors.Unwrap.
	Wrap(err error) DriverError
}

// FSError is a DriverError sentinel. The exposed taxonomy (spec section 6) is
// NONE (nil), ACCESS, SEEK, ISDIR, NOSPACE, EXISTS, NOTFOUND, UNSUPPORTED, IO,
// and INVAL; each maps to the POSIX errno of the same shape.
type FSError struct {
	errno   syscall.Errno
	message string
}

var (
	// ErrAccess corresponds to ACCESS / EACCES: the caller lacks permission.
	// The engine itself performs no permission checks (spec Non-goals); this
	// exists for collaborators layered on top that do.
	ErrAccess = FSError{errno: syscall.EACCES, message: "permission denied"}
	// ErrSeek corresponds to SEEK / ESPIPE: an invalid seek. The drivers in
	// internal/device report a failed seek as ErrIO, so nothing in this
	// module raises ErrSeek.
	ErrSeek = FSError{errno: syscall.ESPIPE, message: "invalid seek"}
	// ErrIsDir corresponds to ISDIR / EISDIR: an operation that requires a
	// regular file was given a directory.
	ErrIsDir = FSError{errno: syscall.EISDIR, message: "is a directory"}
	// ErrNoSpace corresponds to NOSPACE / ENOSPC: the inode or data bitmap has
	// no free bits left.
	ErrNoSpace = FSError{errno: syscall.ENOSPC, message: "no space left on device"}
	// ErrExists corresponds to EXISTS / EEXIST: the target name is already
	// bound in its parent directory.
	ErrExists = FSError{errno: syscall.EEXIST, message: "file exists"}
	// ErrNotFound corresponds to NOTFOUND / ENOENT: a path component could not
	// be resolved.
	ErrNotFound = FSError{errno: syscall.ENOENT, message: "no such file or directory"}
	// ErrUnsupported corresponds to UNSUPPORTED / ENOTSUP: the format has no
	// room for the requested feature (e.g. a fifth data block).
	ErrUnsupported = FSError{errno: syscall.ENOTSUP, message: "operation not supported"}
	// ErrIO corresponds to IO / EIO: the block driver returned a read or write
	// failure.
	ErrIO = FSError{errno: syscall.EIO, message: "input/output error"}
	// ErrInvalidArgument corresponds to INVAL / EINVAL: an out-of-range inode
	// number, a negative-size or out-of-device transfer, or a buffer or device
	// size that is not a whole number of I/O units. Dentry pointers and
	// filename lengths are not checked: AllocInode does not test its dentry
	// for nil, and a filename longer than the 128-byte name field is
	// truncated when written.
	ErrInvalidArgument = FSError{errno: syscall.EINVAL, message: "invalid argument"}
	// ErrNotDirectory corresponds to ENOTDIR. The resolver itself never
	// returns an error — Lookup reports a non-directory traversal by
	// returning found=false (spec section 4.5, "path resolution never
	// errors") — so nothing in this module raises ErrNotDirectory. It is
	// exposed for upper-layer collaborators that translate a failed Lookup
	// into a POSIX-shaped error and need the matching errno.
	ErrNotDirectory = FSError{errno: syscall.ENOTDIR, message: "not a directory"}
	// ErrCorrupted corresponds to EUCLEAN. Mount performs no sanity check on
	// the superblock or bitmaps (a device whose magic number does not match
	// is treated as unformatted and initialized), so nothing in this module
	// raises ErrCorrupted.
	ErrCorrupted = FSError{errno: syscall.EUCLEAN, message: "structure needs cleaning"}
)

// Error implements the error interface.
func (e FSError) Error() string {
	return e.message
}

// Errno implements DriverError.
func (e FSError) Errno() syscall.Errno {
	return e.errno
}

// WithMessage implements DriverError.
func (e FSError) WithMessage(message string) DriverError {
	return customDriverError{
		errno:   e.errno,
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e,
	}
}

// Wrap implements DriverError.
func (e FSError) Wrap(err error) DriverError {
	return customDriverError{
		errno:   e.errno,
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   err,
	}
}

// customDriverError is produced by FSError.WithMessage/Wrap and preserves
// errors.Is/errors.Unwrap compatibility with the originating sentinel.
type customDriverError struct {
	errno   syscall.Errno
	message string
	cause   error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) Errno() syscall.Errno {
	return e.errno
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		errno:   e.errno,
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e,
	}
}

func (e customDriverError) Wrap(err error) DriverError {
	return customDriverError{
		errno:   e.errno,
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.cause
}
