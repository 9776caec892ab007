package fixedfs

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSError_ErrnoMatchesSentinel(t *testing.T) {
	assert.Equal(t, syscall.ENOSPC, ErrNoSpace.Errno())
	assert.Equal(t, syscall.ENOENT, ErrNotFound.Errno())
	assert.Equal(t, syscall.EEXIST, ErrExists.Errno())
}

func TestFSError_WithMessagePreservesErrnoAndIsComparable(t *testing.T) {
	wrapped := ErrNoSpace.WithMessage("data bitmap exhausted")

	assert.Equal(t, syscall.ENOSPC, wrapped.Errno())
	assert.Contains(t, wrapped.Error(), "data bitmap exhausted")
	assert.True(t, errors.Is(wrapped, ErrNoSpace))
}

func TestFSError_WrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("short read from device")
	wrapped := ErrIO.Wrap(cause)

	require.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, syscall.EIO, wrapped.Errno())
}

func TestFSError_ChainedWithMessageStaysComparableToOriginalSentinel(t *testing.T) {
	wrapped := ErrInvalidArgument.WithMessage("first").WithMessage("second")
	assert.True(t, errors.Is(wrapped, ErrInvalidArgument))
}
