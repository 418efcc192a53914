package handler

import (
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"userdash/internal/pkg/auth/jwt"
	"userdash/internal/pkg/limiter"
	"userdash/internal/pkg/logx"
	"userdash/internal/pkg/resp"
)

// Router builds the chi routing table: global middleware first, then the
// public auth routes (rate limited), the bearer-protected routes and the
// public QR lookup.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(deps.Config.TrustedProxyPrefixes))
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	if deps.Config.SentryDSN != "" {
		// Inside Recoverer so panics are reported before being recovered.
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}

	requireAuth := jwt.RequireAuth(deps.Auth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", HandleHealth(deps))

		api.Route("/auth", func(auth chi.Router) {
			if deps.AuthLimiter != nil {
				auth.Use(limiter.Middleware(deps.AuthLimiter))
			}
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(requireAuth)
			users.Get("/profile", HandleGetProfile(deps))
			users.Put("/profile", HandleUpdateProfile(deps))
			users.Post("/avatar", HandleSetAvatar(deps))
		})

		api.Route("/qrcode", func(qr chi.Router) {
			qr.With(requireAuth).Post("/generate", HandleGenerateQRCode(deps))
			qr.Get("/user/{userId}", HandleLookupQRCode(deps))
			qr.Get("/user/{userId}/image.png", HandleQRCodeImage(deps))
		})
	})

	return r
}

// HandleHealth reports liveness and the number of stored accounts.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Users.Count(r.Context())
		if err != nil {
			logx.Ctx(r.Context()).Warn().Err(err).Msg("health: failed to count users")
			count = -1
		}

		resp.RespondSuccess(w, r, map[string]any{
			"status":     "OK",
			"message":    "Server is running",
			"usersCount": count,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
