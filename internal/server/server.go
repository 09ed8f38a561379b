package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cortex/internal/logger"
	"cortex/internal/port"
	"cortex/internal/usecase"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	AllowAll bool // allow all CORS origins
	// Root confines path ingestion to this directory. Empty disables
	// path ingestion over HTTP.
	Root string
}

// Server exposes the library, search, chat and studio over HTTP.
type Server struct {
	cfg        Config
	store      port.DocumentStore
	ingest     *usecase.IngestUseCase
	retrieve   *usecase.RetrieveUseCase
	chat       *usecase.ChatUseCase
	studio     *usecase.StudioUseCase
	maxHits    int
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over the given use cases. maxHits is the default
// hit count for /api/search.
func New(cfg Config, store port.DocumentStore, ingest *usecase.IngestUseCase, retrieve *usecase.RetrieveUseCase,
	chat *usecase.ChatUseCase, studio *usecase.StudioUseCase, maxHits int) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		ingest:   ingest,
		retrieve: retrieve,
		chat:     chat,
		studio:   studio,
		maxHits:  maxHits,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      6 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if logger.IsVerbose() {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", s.handleListSources)
		r.Post("/sources", s.handleAddSource)
		r.Patch("/sources/{id}", s.handleUpdateSource)
		r.Delete("/sources/{id}", s.handleDeleteSource)
		r.Post("/search", s.handleSearch)
		r.Post("/chat", s.handleChat)
		r.Post("/studio", s.handleStudio)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	logger.Info("cortex server listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
