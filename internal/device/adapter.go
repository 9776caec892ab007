package device

import (
	"github.com/dargueta/fixedfs"
)

// Adapter exposes byte-granular ReadAt/WriteAt over a Driver that only
// accepts whole-I/O-unit transfers at I/O-unit-aligned offsets. It computes
// the aligned window around a request, issues back-to-back unit transfers
// covering it, and for writes does a read-modify-write so bytes outside the
// caller's range survive untouched.
//
// Mirrors newfs_driver_read/newfs_driver_write: offset_aligned rounds down to
// a logical-block boundary, size_aligned rounds the (bias-adjusted) request
// up to a whole number of logical blocks, and B is always 2*U.
type Adapter struct {
	driver Driver
	// blockSize is B, the logical block size; always 2 * driver.IOUnitSize().
	blockSize int64
}

// NewAdapter builds an Adapter over driver. B is fixed at 2 * IOUnitSize, per
// the fixed geometry's invariant that every disk transfer the codec issues is
// a multiple of U.
func NewAdapter(driver Driver) *Adapter {
	return &Adapter{
		driver:    driver,
		blockSize: 2 * int64(driver.IOUnitSize()),
	}
}

// BlockSize returns B, the logical block size in bytes.
func (a *Adapter) BlockSize() int64 {
	return a.blockSize
}

// DeviceSize returns the size of the underlying device, in bytes.
func (a *Adapter) DeviceSize() int64 {
	return a.driver.DeviceSize()
}

// alignedWindow computes the offset-aligned, size-aligned window that covers
// [offset, offset+size) in whole logical blocks, along with bias, the number
// of leading bytes within that window before the caller's data starts.
func (a *Adapter) alignedWindow(offset int64, size int) (alignedOffset int64, alignedSize int64, bias int64) {
	alignedOffset = (offset / a.blockSize) * a.blockSize
	bias = offset - alignedOffset
	alignedSize = ((bias + int64(size) + a.blockSize - 1) / a.blockSize) * a.blockSize
	return
}

// transfer seeks the driver to alignedOffset and issues alignedSize/U
// back-to-back I/O-unit transfers into or out of scratch, depending on read.
func (a *Adapter) transfer(alignedOffset, alignedSize int64, scratch []byte, read bool) error {
	if err := a.driver.Seek(alignedOffset); err != nil {
		return err
	}

	unitSize := int64(a.driver.IOUnitSize())
	for off := int64(0); off < alignedSize; off += unitSize {
		unit := scratch[off : off+unitSize]
		var err error
		if read {
			err = a.driver.ReadUnit(unit)
		} else {
			err = a.driver.WriteUnit(unit)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadAt reads exactly size bytes starting at the given byte offset.
func (a *Adapter) ReadAt(offset int64, size int) ([]byte, error) {
	if size < 0 {
		return nil, fixedfs.ErrInvalidArgument.WithMessage("negative read size")
	}
	if offset < 0 || offset+int64(size) > a.driver.DeviceSize() {
		return nil, fixedfs.ErrInvalidArgument.WithMessage("read out of device bounds")
	}

	alignedOffset, alignedSize, bias := a.alignedWindow(offset, size)
	scratch := make([]byte, alignedSize)
	if err := a.transfer(alignedOffset, alignedSize, scratch, true); err != nil {
		return nil, wrapIOError(err, "aligned read failed")
	}

	result := make([]byte, size)
	copy(result, scratch[bias:bias+int64(size)])
	return result, nil
}

// WriteAt writes data at the given byte offset, performing a read-modify-write
// of the aligned window so bytes outside [offset, offset+len(data)) within the
// same logical blocks are preserved.
func (a *Adapter) WriteAt(offset int64, data []byte) error {
	if offset < 0 || offset+int64(len(data)) > a.driver.DeviceSize() {
		return fixedfs.ErrInvalidArgument.WithMessage("write out of device bounds")
	}

	alignedOffset, alignedSize, bias := a.alignedWindow(offset, len(data))
	scratch := make([]byte, alignedSize)
	if err := a.transfer(alignedOffset, alignedSize, scratch, true); err != nil {
		return wrapIOError(err, "aligned read-before-write failed")
	}

	copy(scratch[bias:bias+int64(len(data))], data)

	if err := a.transfer(alignedOffset, alignedSize, scratch, false); err != nil {
		return wrapIOError(err, "aligned write failed")
	}
	return nil
}
