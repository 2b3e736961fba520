package app

import (
	"github.com/agritrace/agritrace-backend/internal/middleware"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, []byte(cfg.JWTSecretKey)),
	}
}
