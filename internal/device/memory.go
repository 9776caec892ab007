package device

import (
	"io"

	"github.com/dargueta/fixedfs"
	"github.com/xaionaro-go/bytesextra"
)

// MemoryDriver is a Driver backed entirely by an in-memory byte slice. It
// backs every test fixture in this module, standing in for the C original's
// DDRIVER device opened by `ddriver_open`. The CLI does not use it.
type MemoryDriver struct {
	stream     io.ReadWriteSeeker
	size       int64
	ioUnitSize uint
}

// NewMemoryDriver wraps backing, whose length must be an exact multiple of
// ioUnitSize, as a Driver.
func NewMemoryDriver(backing []byte, ioUnitSize uint) (*MemoryDriver, error) {
	if ioUnitSize == 0 {
		return nil, fixedfs.ErrInvalidArgument.WithMessage("I/O unit size must be nonzero")
	}
	if len(backing)%int(ioUnitSize) != 0 {
		return nil, fixedfs.ErrInvalidArgument.WithMessage(
			"backing buffer size is not a multiple of the I/O unit size",
		)
	}

	return &MemoryDriver{
		stream:     bytesextra.NewReadWriteSeeker(backing),
		size:       int64(len(backing)),
		ioUnitSize: ioUnitSize,
	}, nil
}

// Close implements Driver. The in-memory driver owns no external resource, so
// this is a no-op.
func (d *MemoryDriver) Close() error {
	return nil
}

// Seek implements Driver.
func (d *MemoryDriver) Seek(offset int64) error {
	_, err := d.stream.Seek(offset, io.SeekStart)
	if err != nil {
		return wrapIOError(err, "seek failed")
	}
	return nil
}

// ReadUnit implements Driver.
func (d *MemoryDriver) ReadUnit(buf []byte) error {
	if uint(len(buf)) != d.ioUnitSize {
		return fixedfs.ErrInvalidArgument.WithMessage("read buffer must be exactly one I/O unit")
	}
	_, err := io.ReadFull(d.stream, buf)
	if err != nil {
		return wrapIOError(err, "read failed")
	}
	return nil
}

// WriteUnit implements Driver.
func (d *MemoryDriver) WriteUnit(buf []byte) error {
	if uint(len(buf)) != d.ioUnitSize {
		return fixedfs.ErrInvalidArgument.WithMessage("write buffer must be exactly one I/O unit")
	}
	_, err := d.stream.Write(buf)
	if err != nil {
		return wrapIOError(err, "write failed")
	}
	return nil
}

// DeviceSize implements Driver.
func (d *MemoryDriver) DeviceSize() int64 {
	return d.size
}

// IOUnitSize implements Driver.
func (d *MemoryDriver) IOUnitSize() uint {
	return d.ioUnitSize
}
