package vote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetBuildsOnce(t *testing.T) {
	var c Cache[string]
	builds := 0
	build := func() (string, error) {
		builds++
		return "value", nil
	}

	assert.False(t, c.Valid())
	for i := 0; i < 3; i++ {
		v, err := c.Get(build)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, builds)
	assert.True(t, c.Valid())

	c.Invalidate()
	assert.False(t, c.Valid())
	_, err := c.Get(build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestCache_FailedBuildStaysStale(t *testing.T) {
	var c Cache[int]
	boom := errors.New("boom")

	_, err := c.Get(func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, c.Valid())

	v, err := c.Get(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
