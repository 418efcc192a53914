package handler

import (
	"userdash/internal/app/auth"
	"userdash/internal/app/profile"
	"userdash/internal/app/qrcode"
	"userdash/internal/app/user"
	"userdash/internal/configs"
	"userdash/internal/pkg/limiter"
)

type AppDeps struct {
	Config      *configs.AppConfig
	Users       user.Store
	Auth        *auth.Service
	Profiles    *profile.Service
	QRCodes     *qrcode.Service
	AuthLimiter limiter.Limiter
}
