// Package app wires the motion-library server: config from environment,
// store, auth, handlers, middleware, router. cmd/server owns the process
// lifecycle and calls Run.
package app

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/motionlib-backend/internal/auth"
	apphttp "github.com/yungbote/motionlib-backend/internal/http"
	httpH "github.com/yungbote/motionlib-backend/internal/http/handlers"
	httpMW "github.com/yungbote/motionlib-backend/internal/http/middleware"
	"github.com/yungbote/motionlib-backend/internal/platform/envutil"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
	"github.com/yungbote/motionlib-backend/internal/platform/observability"
	"github.com/yungbote/motionlib-backend/internal/storage"
)

type App struct {
	Log    *logger.Logger
	Cfg    Config
	Store  *storage.Store
	Router *gin.Engine
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	store, err := storage.New(storage.Config{DataDir: cfg.DataDir}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init store: %w", err)
	}

	authService, err := auth.NewService(log, cfg.JWTSecretKey, cfg.AdminPassword, cfg.AdminPasswordHash, cfg.AccessTokenTTL)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init auth: %w", err)
	}

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Log:               log,
		AuthHandler:       httpH.NewAuthHandler(authService),
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, authService),
		LoginRateLimit:    httpMW.NewLoginRateLimit(log),
		TrajectoryHandler: httpH.NewTrajectoryHandler(log, store),
		ModelHandler:      httpH.NewModelHandler(log, store),
		FrontendOrigin:    cfg.FrontendOrigin,
	})

	return &App{
		Log:    log,
		Cfg:    cfg,
		Store:  store,
		Router: router,
	}, nil
}

// Run serves until the context is canceled or SIGINT/SIGTERM arrives,
// then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if shutdown := observability.InitOTel(ctx, a.Log, observability.Config{
		ServiceName: "motionlib-backend",
		Environment: envutil.String("APP_ENV", "development"),
	}); shutdown != nil {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				a.Log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	srv := &nethttp.Server{
		Addr:    ":" + a.Cfg.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("Server listening", "port", a.Cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
