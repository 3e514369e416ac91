package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/config"
	"github.com/arnavshah/position-helper-go/pkg/handlers"
	"github.com/arnavshah/position-helper-go/pkg/logger"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	// connections live as long as the function instance
	h, _, err := handlers.Build(context.Background(), cfg, zl)
	if err != nil {
		zl.Fatal("could not initialize handlers", zap.Error(err))
	}
	r = handlers.NewRouter(h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r_req *http.Request) {
	r.ServeHTTP(w, r_req)
}
