package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

func tableWith(equipment ...string) *types.Table {
	t := types.NewTable()
	for _, e := range equipment {
		t.Append(types.Record{Equipment: e})
	}
	return t
}

func TestTableCacheGetSet(t *testing.T) {
	c := New(time.Minute)
	hits := testutil.ToFloat64(cacheHitsTotal)
	misses := testutil.ToFloat64(cacheMissesTotal)

	_, ok := c.Get()
	assert.False(t, ok)

	c.Set(tableWith("CNC-01"))
	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 1, got.Len())

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheHitsTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(cacheMissesTotal))
}

func TestTableCacheReturnsCopies(t *testing.T) {
	c := New(time.Minute)
	src := tableWith("CNC-01")
	c.Set(src)
	src.Append(types.Record{Equipment: "LATHE"})

	got, ok := c.Get()
	require.True(t, ok)
	got.Append(types.Record{Equipment: "PRESS"})

	again, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 1, again.Len())
}

func TestTableCacheInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set(tableWith("CNC-01"))

	c.Invalidate()

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestTableCacheExpires(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.Set(tableWith("CNC-01"))

	time.Sleep(120 * time.Millisecond)

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestDisabledCacheIsNil(t *testing.T) {
	c := New(0)
	assert.Nil(t, c)

	c.Set(tableWith("CNC-01"))
	c.Invalidate()
	_, ok := c.Get()
	assert.False(t, ok)
}
