package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/auth"
	"github.com/arnavshah/position-helper-go/pkg/config"
	"github.com/arnavshah/position-helper-go/pkg/database"
	"github.com/arnavshah/position-helper-go/pkg/logger"
	"github.com/arnavshah/position-helper-go/pkg/notify"
)

// Build opens the database and the optional cache and wires a Handler.
// The returned func releases both.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Handler, func(), error) {
	db, err := database.InitDB(cfg.Database, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return nil, nil, err
	}

	var cache *database.SnapshotCache
	if cfg.Redis.URL != "" {
		cache, err = database.NewSnapshotCache(cfg.Redis.URL, cfg.Redis.TTL, log)
		if err != nil {
			// the cache is optional; serve from the database alone
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			cache = nil
		}
	}

	cleanup := func() {
		_ = cache.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	am := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, db)
	if err := am.EnsureAdminExists(cfg.Auth.AdminPassword); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ensure admin: %w", err)
	}

	store := database.NewStore(db, cache, log)
	n := notify.New(cfg.Slack.WebhookURL, cfg.Slack.Channel, log)
	h, err := New(ctx, cfg, store, am, n, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return h, cleanup, nil
}

// NewRouter returns an engine with the middleware stack and every route
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(h.Log), gin.Recovery())
	h.RegisterRoutes(r)
	return r
}
