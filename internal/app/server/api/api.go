package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/server/api/http/health"
	"voicedrop/internal/app/server/api/http/middleware"
	"voicedrop/internal/app/server/api/http/middleware/auth"
	"voicedrop/internal/app/server/api/http/middleware/logger"
	recordingAPI "voicedrop/internal/app/server/api/http/recording"
	userAPI "voicedrop/internal/app/server/api/http/user"
	"voicedrop/internal/app/server/config"
	"voicedrop/internal/domain/recording"
	"voicedrop/internal/domain/session"
	"voicedrop/internal/domain/user"
)

// Services are the domain services the HTTP layer dispatches to.
type Services struct {
	Users      user.Servicer
	Sessions   session.Servicer
	Recordings recording.Servicer
	DB         health.Pinger
}

type Handlers struct {
	Health    *health.Handler
	User      *userAPI.Handler
	Recording *recordingAPI.Handler
}

// New builds the router with every operation registered through huma.
func New(cfg *config.Config, svc Services, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	mux.Use(chimw.RequestID)
	if cfg.Server.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(chimw.Recoverer)
	if len(cfg.Server.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	mux.Use(middleware.BodyLimit(cfg.Upload.MaxBytes + middleware.Envelope))

	humaConfig := huma.DefaultConfig("Voicedrop API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {Type: "apiKey", In: "cookie", Name: cfg.Session.CookieName},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(API, cfg, svc, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Recording.SetupRoutes(API)

	return mux
}

func handlers(api huma.API, cfg *config.Config, svc Services, log *slog.Logger) *Handlers {
	cookie := auth.Cookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		TTL:    cfg.Session.TTL,
	}
	authMW := auth.New(api, svc.Sessions, cookie, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := health.NewHandler(svc.DB, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	userPublic := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Optional())
	userOptional := middlewares.GetAllAndClear()
	userHandler := userAPI.NewHandler(svc.Users, svc.Sessions, cookie, log, userPublic, userOptional)

	middlewares.Add(loggerMW.Middleware())
	recordingPublic := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	recordingProtected := middlewares.GetAllAndClear()
	recordingHandler := recordingAPI.NewHandler(svc.Recordings, svc.Users, log, recordingPublic, recordingProtected)

	return &Handlers{
		Health:    healthHandler,
		User:      userHandler,
		Recording: recordingHandler,
	}
}
