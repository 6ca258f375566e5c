// Package http assembles the gin router. Handlers and middleware are
// constructed by the app layer and wired here; nil fields leave their
// routes unregistered, which keeps tests free to mount only what they
// exercise.
package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/motionlib-backend/internal/http/handlers"
	httpMW "github.com/yungbote/motionlib-backend/internal/http/middleware"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler       *httpH.AuthHandler
	AuthMiddleware    *httpMW.AuthMiddleware
	LoginRateLimit    *httpMW.LoginRateLimit
	TrajectoryHandler *httpH.TrajectoryHandler
	ModelHandler      *httpH.ModelHandler

	FrontendOrigin string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("motionlib-backend"))
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.FrontendOrigin))

	r.GET("/", httpH.Banner)
	r.GET("/health", httpH.HealthCheck)

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			login := api.Group("/auth")
			if cfg.LoginRateLimit != nil {
				login.POST("/login", cfg.LoginRateLimit.Handler(), cfg.AuthHandler.Login)
			} else {
				login.POST("/login", cfg.AuthHandler.Login)
			}
			login.POST("/verify", cfg.AuthHandler.Verify)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.TrajectoryHandler != nil {
			protected.GET("/trajectories", cfg.TrajectoryHandler.List)
			protected.POST("/trajectories", cfg.TrajectoryHandler.Upload)
			protected.GET("/trajectories/:id", cfg.TrajectoryHandler.Download)
			protected.GET("/trajectories/:id/info", cfg.TrajectoryHandler.Get)
			protected.DELETE("/trajectories/:id", cfg.TrajectoryHandler.Delete)
			protected.GET("/trajectories/:id/thumbnail", cfg.TrajectoryHandler.Thumbnail)
		}

		if cfg.ModelHandler != nil {
			protected.GET("/models", cfg.ModelHandler.List)
			protected.POST("/models", cfg.ModelHandler.Upload)
			protected.GET("/models/:id", cfg.ModelHandler.Download)
			protected.GET("/models/:id/info", cfg.ModelHandler.Get)
			protected.DELETE("/models/:id", cfg.ModelHandler.Delete)
			protected.GET("/models/:id/thumbnail", cfg.ModelHandler.Thumbnail)
			protected.GET("/models/:id/files", cfg.ModelHandler.Files)
			protected.GET("/models/:id/files/*filepath", cfg.ModelHandler.File)
		}
	}

	return r
}
