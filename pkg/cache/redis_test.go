package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := New(ctx, WithAddress("127.0.0.1:1"), WithKeyPrefix("test:"))

	assert.Nil(t, c)
	assert.ErrorContains(t, err, "ping redis at 127.0.0.1:1")
}

func TestNoop(t *testing.T) {
	var c Cacher = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	var dest string
	assert.ErrorIs(t, c.Get(ctx, "k", &dest), ErrMiss)
	assert.NoError(t, c.Close())
}
