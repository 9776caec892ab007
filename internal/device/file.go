package device

import (
	"io"
	"os"

	"github.com/dargueta/fixedfs"
)

// FileDriver is a Driver backed by a regular file on disk, used by the CLI's
// format and info commands (as opposed to the in-memory driver, which only
// the tests use).
type FileDriver struct {
	file       *os.File
	size       int64
	ioUnitSize uint
}

// OpenFileDriver opens path (which must already exist and be a whole
// multiple of ioUnitSize bytes) as a Driver.
func OpenFileDriver(path string, ioUnitSize uint) (*FileDriver, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fixedfs.ErrIO.WithMessage("failed to open device file").Wrap(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fixedfs.ErrIO.WithMessage("failed to stat device file").Wrap(err)
	}

	if info.Size()%int64(ioUnitSize) != 0 {
		file.Close()
		return nil, fixedfs.ErrInvalidArgument.WithMessage(
			"device file size is not a multiple of the I/O unit size",
		)
	}

	return &FileDriver{file: file, size: info.Size(), ioUnitSize: ioUnitSize}, nil
}

// Close implements Driver.
func (d *FileDriver) Close() error {
	if err := d.file.Close(); err != nil {
		return wrapIOError(err, "failed to close device file")
	}
	return nil
}

// Seek implements Driver.
func (d *FileDriver) Seek(offset int64) error {
	_, err := d.file.Seek(offset, io.SeekStart)
	if err != nil {
		return wrapIOError(err, "seek failed")
	}
	return nil
}

// ReadUnit implements Driver.
func (d *FileDriver) ReadUnit(buf []byte) error {
	if uint(len(buf)) != d.ioUnitSize {
		return fixedfs.ErrInvalidArgument.WithMessage("read buffer must be exactly one I/O unit")
	}
	_, err := io.ReadFull(d.file, buf)
	if err != nil {
		return wrapIOError(err, "read failed")
	}
	return nil
}

// WriteUnit implements Driver.
func (d *FileDriver) WriteUnit(buf []byte) error {
	if uint(len(buf)) != d.ioUnitSize {
		return fixedfs.ErrInvalidArgument.WithMessage("write buffer must be exactly one I/O unit")
	}
	_, err := d.file.Write(buf)
	if err != nil {
		return wrapIOError(err, "write failed")
	}
	return nil
}

// DeviceSize implements Driver.
func (d *FileDriver) DeviceSize() int64 {
	return d.size
}

// IOUnitSize implements Driver.
func (d *FileDriver) IOUnitSize() uint {
	return d.ioUnitSize
}
