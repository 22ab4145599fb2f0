package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCache(t *testing.T) {
	c, err := newRenderCache(1<<20, 1000)
	require.NoError(t, err)
	defer c.close()

	_, ok := c.get("k")
	assert.False(t, ok)

	c.set("k", "<span>v</span>")
	c.wait()
	got, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, "<span>v</span>", got)
}

func TestRenderCache_Disabled(t *testing.T) {
	c, err := newRenderCache(0, 0)
	require.NoError(t, err)
	assert.Nil(t, c)

	c.set("k", "v")
	c.wait()
	_, ok := c.get("k")
	assert.False(t, ok)
	c.close()
}

func TestRenderKey(t *testing.T) {
	assert.Equal(t, renderKey("en", "n", "", "{}"), renderKey("en", "n", "", "{}"))
	assert.NotEqual(t, renderKey("ab", "c"), renderKey("a", "bc"))
	assert.Len(t, renderKey("x"), 64)
}
