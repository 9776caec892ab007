package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownProfile(t *testing.T) {
	profile, err := Get("standard-4mib")
	require.NoError(t, err)
	assert.EqualValues(t, 512, profile.IOUnitSize)
	assert.EqualValues(t, 4*1024*1024, profile.TotalSizeBytes())
}

func TestGet_UnknownProfile(t *testing.T) {
	_, err := Get("does-not-exist")
	assert.Error(t, err)
}

func TestNames_IncludesSeededProfiles(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "minimal")
	assert.Contains(t, names, "standard-4mib")
}
