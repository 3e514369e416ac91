package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

const snapshotKey = "position-helper:appdata"

// SnapshotCache keeps the last loaded AppData in redis so serverless cold starts
// skip the full table scan. A nil cache is valid and never hits.
type SnapshotCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *zap.Logger
}

// NewSnapshotCache connects to url and checks the connection
func NewSnapshotCache(url string, ttl time.Duration, log *zap.Logger) (*SnapshotCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	log.Info("redis snapshot cache enabled", zap.String("addr", opts.Addr), zap.Duration("ttl", ttl))
	return &SnapshotCache{rdb: rdb, ttl: ttl, log: log}, nil
}

// Get returns the cached snapshot
func (c *SnapshotCache) Get(ctx context.Context) (*models.AppData, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("snapshot cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var data models.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.log.Warn("snapshot cache entry unreadable", zap.Error(err))
		return nil, false
	}
	if data.Weeks == nil {
		data.Weeks = map[string]models.WeekData{}
	}
	return &data, true
}

// Set stores data. Failures only cost a cache miss.
func (c *SnapshotCache) Set(ctx context.Context, data *models.AppData) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.Warn("snapshot cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, snapshotKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("snapshot cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached snapshot after a write
func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		c.log.Warn("snapshot cache invalidate failed", zap.Error(err))
	}
}

// Close releases the connection
func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
