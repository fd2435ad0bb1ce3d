// Package stats keeps per-video download counters in Redis.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/your-org/tubefetch/internal/models"
)

const (
	keyPrefix    = "tubefetch"
	keyDownloads = "downloads" // HASH per video. quality label -> count. HINCRBY on each finished download.
	keySeparator = ":"

	connectTimeout = 5 * time.Second
)

type Counter struct {
	cl  *redis.Client
	log *slog.Logger
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string, log *slog.Logger) (*Counter, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	cl := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Info("connected to redis", slog.String("addr", opt.Addr), slog.Int("db", opt.DB))
	return NewCounter(cl, log), nil
}

func NewCounter(cl *redis.Client, log *slog.Logger) *Counter {
	return &Counter{
		cl:  cl,
		log: log.With("component", "stats"),
	}
}

// RecordDownload increments the counter of one quality of a video.
func (c *Counter) RecordDownload(ctx context.Context, id models.VideoID, quality string) error {
	if _, err := c.cl.HIncrBy(ctx, getKey(keyDownloads, string(id)), quality, 1).Result(); err != nil {
		return fmt.Errorf("cannot increment download counter of %s: %w", id, err)
	}
	return nil
}

// Counts returns the download counters of a video keyed by quality. A video
// never downloaded yields an empty map.
func (c *Counter) Counts(ctx context.Context, id models.VideoID) (map[string]int64, error) {
	raw, err := c.cl.HGetAll(ctx, getKey(keyDownloads, string(id))).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get download counters of %s: %w", id, err)
	}

	counts := make(map[string]int64, len(raw))
	for quality, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.log.Error("cannot convert counter to int", slog.String("video_id", string(id)), slog.String("quality", quality), slog.Any("error", err))
			continue
		}
		counts[quality] = n
	}
	return counts, nil
}

func (c *Counter) Ping(ctx context.Context) error {
	return c.cl.Ping(ctx).Err()
}

func (c *Counter) Close() error {
	return c.cl.Close()
}

func getKey(keys ...string) string {
	return keyPrefix + keySeparator + strings.Join(keys, keySeparator)
}
