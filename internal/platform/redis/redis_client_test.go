package redis

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFor(t *testing.T, mr *miniredis.Miniredis) Config {
	t.Helper()
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return Config{Host: host, Port: p}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Host: "cache"}.Enabled())
	assert.Equal(t, "cache:6379", Config{Host: "cache", Port: 6379}.Addr())
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	t.Run("connects and pings", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)

		rdb, err := NewRedisClient(context.Background(), configFor(t, mr))

		require.NoError(t, err)
		t.Cleanup(func() { _ = rdb.Close() })
		require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("requires password when server has one", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		mr.RequireAuth("secret")
		cfg := configFor(t, mr)

		_, err := NewRedisClient(context.Background(), cfg)
		assert.Error(t, err)

		cfg.Password = "secret"
		rdb, err := NewRedisClient(context.Background(), cfg)
		require.NoError(t, err)
		_ = rdb.Close()
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		mr, err := miniredis.Run()
		require.NoError(t, err)
		cfg := configFor(t, mr)
		mr.Close()

		rdb, err := NewRedisClient(context.Background(), cfg)
		assert.Error(t, err)
		assert.Nil(t, rdb)
	})
}
