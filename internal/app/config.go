package app

import (
	"time"

	"github.com/yungbote/motionlib-backend/internal/platform/envutil"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

type Config struct {
	DataDir string
	Port    string

	JWTSecretKey      string
	AdminPassword     string
	AdminPasswordHash string
	AccessTokenTTL    time.Duration

	FrontendOrigin string
	ThumbnailSize  int
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		DataDir:           envutil.String("DATA_DIR", "./data"),
		Port:              envutil.String("PORT", "8080"),
		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AdminPassword:     envutil.String("ADMIN_PASSWORD", ""),
		AdminPasswordHash: envutil.String("ADMIN_PASSWORD_HASH", ""),
		AccessTokenTTL:    envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		FrontendOrigin:    envutil.String("FRONTEND_ORIGIN", ""),
		ThumbnailSize:     envutil.Int("THUMBNAIL_SIZE", 320),
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		log.Warn("No admin credential configured, falling back to default password")
		cfg.AdminPassword = "admin"
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("Using default JWT secret; set JWT_SECRET_KEY in production")
	}
	return cfg
}
