package handler

import (
	"net/http"

	"branchline/internal/hub"
	"branchline/internal/metrics"
	"branchline/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP layer serves
type RouterConfig struct {
	Graphs   *service.GraphService
	Sessions *service.SessionService
	Hub      *hub.Hub
	Metrics  *metrics.Collector
	Logger   *zap.Logger

	// AllowedOrigins for CORS; empty allows any origin
	AllowedOrigins []string
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(logger, cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	graphs := NewGraphHandler(cfg.Graphs, logger)
	sessions := NewSessionHandler(cfg.Sessions, logger, cfg.AllowedOrigins)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		clients := 0
		if cfg.Hub != nil {
			clients = cfg.Hub.ClientCount()
		}
		writeJSON(w, logger, map[string]interface{}{
			"status":      "ok",
			"sessions":    cfg.Sessions.Count(),
			"sse_clients": clients,
		}, http.StatusOK)
	})
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.Hub != nil {
			r.Handle("/events", cfg.Hub)
		}

		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", graphs.ListGraphs)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", graphs.GetGraph)
				r.Put("/", graphs.PutGraph)
				r.Delete("/", graphs.DeleteGraph)
				r.Get("/validate", graphs.ValidateGraph)
				r.Put("/properties/{prop}", graphs.SetProperty)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.ListSessions)
			r.Post("/", sessions.StartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessions.GetSession)
				r.Delete("/", sessions.EndSession)
				r.Post("/proceed", sessions.Proceed)
				r.Put("/properties/{prop}", sessions.SetProperty)
				r.Get("/ws", sessions.Play)
			})
		})
	})

	return r
}
