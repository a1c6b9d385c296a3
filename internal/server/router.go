// Package server assembles the HTTP router from the service packages.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/config"
	"github.com/ayush/socialnet/backend/internal/middleware"
	"github.com/ayush/socialnet/backend/internal/notify"
	"github.com/ayush/socialnet/backend/internal/posts"
	"github.com/ayush/socialnet/backend/internal/social"
)

// Store is the document store behind users and posts.
type Store interface {
	auth.UserStore
	social.UserStore
	posts.UserStore
	posts.PostStore
}

// MediaStore hosts uploaded images.
type MediaStore interface {
	social.MediaStore
}

// Deps carries everything the router needs. Revocations may be nil.
type Deps struct {
	Config        *config.Config
	Logger        *slog.Logger
	Store         Store
	Notifications notify.Store
	Media         MediaStore
	Revocations   auth.RevocationList
}

// NewRouter wires handlers, guards and middleware into a chi router.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	revocations := d.Revocations
	if revocations == nil {
		revocations = auth.NoRevocation{}
	}

	issuer := auth.NewIssuer(cfg)
	emitter := notify.NewEmitter(d.Notifications)

	authHandler := auth.NewHandler(d.Store, issuer, revocations, cfg.BcryptCost)
	socialHandler := social.NewHandler(social.NewService(d.Store, d.Media, emitter, cfg.BcryptCost))
	postHandler := posts.NewHandler(posts.NewService(d.Store, d.Store, d.Media, emitter))
	notifyHandler := notify.NewHandler(d.Notifications, d.Store)

	guard := middleware.RequireAuth(issuer, d.Store, revocations)
	authLimiter := middleware.NewLimiter(middleware.LimiterConfig{
		Requests: cfg.AuthRateRequests,
		Window:   cfg.AuthRateWindow,
		Burst:    cfg.AuthRateBurst,
		Idle:     10 * time.Minute,
	})
	limitAuth := middleware.RateLimit(authLimiter, middleware.ClientAddr)

	r := chi.NewRouter()
	// Forwarded headers are only trustworthy behind a proxy that rewrites them.
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.With(limitAuth).Post("/signup", authHandler.Signup)
		r.With(limitAuth).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(guard).Get("/me", authHandler.Me)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(guard)
		r.Get("/profile/{username}", socialHandler.Profile)
		r.Get("/suggested", socialHandler.Suggested)
		r.Post("/follow/{id}", socialHandler.Follow)
		r.Post("/update", socialHandler.Update)
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Use(guard)
		r.Get("/all", postHandler.All)
		r.Get("/following", postHandler.Following)
		r.Get("/likes/{id}", postHandler.Liked)
		r.Get("/user/{username}", postHandler.ByUser)
		r.Post("/create", postHandler.Create)
		r.Post("/like/{id}", postHandler.Like)
		r.Post("/comment/{id}", postHandler.Comment)
		r.Delete("/{id}", postHandler.Delete)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(guard)
		r.Get("/", notifyHandler.List)
		r.Delete("/", notifyHandler.DeleteAll)
	})

	return r
}
