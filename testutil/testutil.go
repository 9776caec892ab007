// Package testutil builds in-memory fixtures — block devices and drivers —
// for exercising the storage engine without a real disk image.
package testutil

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fixedfs/internal/device"
)

// NewBlankDevice allocates a zero-filled byte slice sized for totalIOUnits
// transfers of ioUnitSize bytes each, mimicking an unformatted device.
func NewBlankDevice(ioUnitSize, totalIOUnits uint) []byte {
	return make([]byte, ioUnitSize*totalIOUnits)
}

// NewRandomDevice is like NewBlankDevice but fills the backing buffer with
// random bytes, useful for asserting that a routine only touches the bytes
// it claims to.
func NewRandomDevice(t *testing.T, ioUnitSize, totalIOUnits uint) []byte {
	buf := make([]byte, ioUnitSize*totalIOUnits)
	_, err := rand.Read(buf)
	require.NoError(t, err, "failed to fill device with random bytes")
	return buf
}

// NewMemoryDriver wraps backing as a device.Driver with the given I/O unit
// size, failing the test immediately if the buffer size is invalid.
func NewMemoryDriver(t *testing.T, backing []byte, ioUnitSize uint) *device.MemoryDriver {
	driver, err := device.NewMemoryDriver(backing, ioUnitSize)
	require.NoError(t, err, "failed to construct in-memory driver")
	return driver
}

// NewBlankMemoryDriver is the common case: a zero-filled device of the given
// size, ready to be passed to engine.Mount for a fresh-init mount.
func NewBlankMemoryDriver(t *testing.T, ioUnitSize, totalIOUnits uint) *device.MemoryDriver {
	return NewMemoryDriver(t, NewBlankDevice(ioUnitSize, totalIOUnits), ioUnitSize)
}
