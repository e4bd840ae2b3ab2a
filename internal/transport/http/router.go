package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quickchat/internal/presence"
	"quickchat/internal/service"
	"quickchat/internal/store"
)

// MediaDownloader streams a stored media object and returns its metadata.
type MediaDownloader interface {
	Download(ctx context.Context, id string, w io.Writer) (*store.MediaFile, error)
}

// Config carries the router's operational knobs.
type Config struct {
	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
	WSPingInterval  time.Duration
}

type Handler struct {
	auth     *service.AuthService
	messages *service.MessageService
	tokens   *service.TokenService
	media    MediaDownloader
	registry *presence.Registry
	cfg      Config
}

func NewRouter(
	auth *service.AuthService,
	messages *service.MessageService,
	tokens *service.TokenService,
	media MediaDownloader,
	registry *presence.Registry,
	cfg Config,
) http.Handler {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 30
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.WSPingInterval <= 0 {
		cfg.WSPingInterval = 30 * time.Second
	}
	h := &Handler{
		auth:     auth,
		messages: messages,
		tokens:   tokens,
		media:    media,
		registry: registry,
		cfg:      cfg,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// The WebSocket endpoint sits outside the timeout group: the connection
	// is expected to outlive any request deadline.
	r.Get("/ws", h.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/status", h.handleStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
				r.Post("/signup", h.handleSignup)
				r.Post("/login", h.handleLogin)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth(tokens))
				r.Get("/check", h.handleCheck)
				r.Put("/update-profile", h.handleUpdateProfile)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(requireAuth(tokens))
			r.Get("/users", h.handleSidebar)
			r.Get("/{id}", h.handleThread)
			r.Put("/mark/{id}", h.handleMarkSeen)
			r.Post("/send/{id}", h.handleSend)
		})

		r.Get("/media/{id}", h.handleMedia)
	})

	return r
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is live"))
}
