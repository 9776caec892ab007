// Package device implements the block device adapter: a byte-granular
// read/write API layered over an opaque driver handle that only accepts
// fixed-size, fixed-alignment transfers.
package device

import (
	"io"

	"github.com/dargueta/fixedfs"
)

// Driver is the opaque block device handle the adapter wraps. It mirrors the
// original driver's open/close/seek/read/write/ioctl surface: transfers are
// always exactly IOUnitSize() bytes, issued at offsets the caller is
// responsible for aligning.
type Driver interface {
	io.Closer

	// Seek repositions the driver to an absolute byte offset from the start
	// of the device.
	Seek(offset int64) error

	// ReadUnit reads exactly one I/O unit starting at the driver's current
	// position into buf, which must be IOUnitSize() bytes long.
	ReadUnit(buf []byte) error

	// WriteUnit writes exactly one I/O unit from buf, which must be
	// IOUnitSize() bytes long, at the driver's current position.
	WriteUnit(buf []byte) error

	// DeviceSize reports the total addressable size of the device, in bytes.
	// Equivalent to ioctl(REQ_DEVICE_SIZE).
	DeviceSize() int64

	// IOUnitSize reports the size of a single transfer the driver accepts, in
	// bytes. Equivalent to ioctl(REQ_DEVICE_IO_SZ).
	IOUnitSize() uint
}

// wrapIOError maps a low-level error from a Driver into the engine's error
// taxonomy. A nil err passes through unchanged.
func wrapIOError(err error, context string) fixedfs.DriverError {
	if err == nil {
		return nil
	}
	if driverErr, ok := err.(fixedfs.DriverError); ok {
		return driverErr
	}
	return fixedfs.ErrIO.WithMessage(context + ": " + err.Error())
}
