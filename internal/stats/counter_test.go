package stats

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCounter(t *testing.T) (*miniredis.Miniredis, *Counter) {
	t.Helper()

	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cl.Close() })

	return mr, NewCounter(cl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCounter_RecordAndCount(t *testing.T) {
	mr, c := setupCounter(t)
	ctx := context.Background()

	require.NoError(t, c.RecordDownload(ctx, "dQw4w9WgXcQ", "bestaudio"))
	require.NoError(t, c.RecordDownload(ctx, "dQw4w9WgXcQ", "bestaudio"))
	require.NoError(t, c.RecordDownload(ctx, "dQw4w9WgXcQ", "137"))

	counts, err := c.Counts(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"bestaudio": 2, "137": 1}, counts)

	assert.Equal(t, "2", mr.HGet("tubefetch:downloads:dQw4w9WgXcQ", "bestaudio"))
}

func TestCounter_UnknownVideo(t *testing.T) {
	_, c := setupCounter(t)

	counts, err := c.Counts(context.Background(), "aaaaaaaaaaa")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCounter_SkipsCorruptValues(t *testing.T) {
	mr, c := setupCounter(t)
	mr.HSet("tubefetch:downloads:dQw4w9WgXcQ", "18", "many", "22", "3")

	counts, err := c.Counts(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"22": 3}, counts)
}

func TestCounter_ServerDown(t *testing.T) {
	mr, c := setupCounter(t)
	mr.Close()

	assert.Error(t, c.Ping(context.Background()))
	assert.Error(t, c.RecordDownload(context.Background(), "dQw4w9WgXcQ", "18"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0", log)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Ping(context.Background()))

	_, err = Connect(context.Background(), "not-a-url", log)
	assert.Error(t, err)
}
