package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefCodecShortID(t *testing.T) {
	c := NewRefCodec(nil, 0)
	ctx := context.Background()

	ref, err := c.Encode(ctx, "BAADBAADqwADBREAAYag")
	require.NoError(t, err)
	assert.Equal(t, "file_BAADBAADqwADBREAAYag", ref)

	id, err := c.Decode(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "BAADBAADqwADBREAAYag", id)
}

func TestRefCodecLongID(t *testing.T) {
	c := NewRefCodec(newMemoryKV(t), 0)
	ctx := context.Background()

	long := "BQACAgUAAxkBAAIBZ2" + strings.Repeat("Xy", 40)

	ref, err := c.Encode(ctx, long)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, refHashPrefix))
	assert.LessOrEqual(t, len(ref), MaxRefLen)

	again, err := c.Encode(ctx, long)
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	id, err := c.Decode(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, long, id)

	_, err = NewRefCodec(nil, 0).Encode(ctx, long)
	assert.Error(t, err)
}

func TestRefCodecUnknown(t *testing.T) {
	c := NewRefCodec(newMemoryKV(t), 0)
	ctx := context.Background()

	for _, ref := range []string{"", "file_", "fh_deadbeef", "help_callback"} {
		_, err := c.Decode(ctx, ref)
		assert.ErrorIs(t, err, ErrUnknownRef, ref)
	}

	assert.True(t, IsRef("file_x"))
	assert.True(t, IsRef("fh_1"))
	assert.False(t, IsRef("refresh_stats"))
}
