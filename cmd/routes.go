package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/handler"
	"github.com/lightwaver/gallerix/internal/security"
	"github.com/lightwaver/gallerix/internal/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func setupMiddleware(r chi.Router, cfg *config.AppConfig) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

func setupOpsRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, auth *security.Authenticator, rate *config.RateLimitConfig) {
	r.Group(func(r chi.Router) {
		if rate.LoginPerMinute > 0 {
			r.Use(httprate.Limit(
				rate.LoginPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					util.HandleError(w, "too many login attempts", http.StatusTooManyRequests)
				}),
			))
		}
		r.Post("/login", h.Login)
	})
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/me", h.Me)
	})
}

func setupGalleryRoutes(r chi.Router, h *handler.GalleryHandler, auth *security.Authenticator) {
	r.Get("/public-galleries", h.ListPublicGalleries)

	r.Route("/galleries", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/", h.ListGalleries)
			r.Post("/", h.CreateGallery)
		})

		// Public galleries are readable without a credential; the service decides.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth)
			r.Get("/{name}/items", h.ListItems)
			r.Post("/{name}/upload", h.Upload)
		})
	})
}

func setupAdminRoutes(r chi.Router, h *handler.AdminHandler, auth *security.Authenticator) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth, security.RequireAdmin)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.UpsertUser)
		r.Delete("/users/{username}", h.DeleteUser)

		r.Get("/roles", h.GetRoles)
		r.Put("/roles", h.SetRoles)

		r.Get("/galleries", h.ListGalleries)
		r.Post("/galleries", h.UpsertGallery)
		r.Delete("/galleries/{name}", h.DeleteGallery)
	})
}

func setupMediaRoutes(r chi.Router, h *handler.MediaHandler) {
	r.Get("/image", h.Image)
	r.Head("/image", h.Image)
	r.Get("/thumb", h.Thumb)
	r.Head("/thumb", h.Thumb)
}
