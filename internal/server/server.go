package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/handler"
	"github.com/faucetdb/crudgen/internal/server/middleware"
	"github.com/faucetdb/crudgen/internal/session"
	"github.com/faucetdb/crudgen/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	EnableUI        bool
	MaxBodySize     int64 // bytes
	OutputDir       string
	Stream          handler.StreamConfig
	// GenerateRateLimit caps generation requests per session per minute.
	// Zero disables the limit.
	GenerateRateLimit int
	Version           string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		EnableUI:        true,
		MaxBodySize:     1 * 1024 * 1024, // 1MB
		OutputDir:       "generated",
		Stream: handler.StreamConfig{
			WordDelay:       10 * time.Millisecond,
			SchemaWordDelay: 30 * time.Millisecond,
		},
		GenerateRateLimit: 30,
		Version:           "dev",
	}
}

// Server is the top-level HTTP server for crudgen. It owns the Chi router,
// the connector registry, the session store and the code generator.
type Server struct {
	cfg        Config
	router     chi.Router
	registry   *connector.Registry
	sessions   *session.Store
	signer     *session.Signer
	generator  handler.CodeGenerator
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server with all routes and middleware wired. generator
// may be nil when no model is configured; generation endpoints then answer
// 503.
func New(cfg Config, registry *connector.Registry, sessions *session.Store, signer *session.Signer, generator handler.CodeGenerator, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		registry:  registry,
		sessions:  sessions,
		signer:    signer,
		generator: generator,
		logger:    logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}

	// --- Health checks ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.With(chimw.Compress(5)).Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.Version).ServeSpec)

	// --- API routes ---
	schemaH := handler.NewSchemaHandler(s.registry, s.sessions, s.logger)
	genH := handler.NewGenerateHandler(s.sessions, s.generator, s.cfg.OutputDir, s.cfg.Stream, s.logger)
	sessH := handler.NewSessionHandler(s.sessions, s.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(s.sessions, s.signer, s.logger))

		// The word stream must not be buffered by the compressor.
		r.Get("/generate/stream", genH.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))

			// Inspection
			r.Get("/tables", schemaH.ListTables)
			r.Get("/tables/{table}", schemaH.DescribeTable)
			r.Post("/tables/{table}/columns", schemaH.FetchColumns)

			// Schema editing
			r.Post("/schema/tables", schemaH.CreateTable)
			r.Delete("/schema/tables/{table}", schemaH.DropTable)
			r.Post("/schema/tables/{table}/columns", schemaH.AddColumn)
			r.Delete("/schema/tables/{table}/columns/{column}", schemaH.DropColumn)
			r.Patch("/schema/tables/{table}/columns/{column}", schemaH.RenameColumn)

			// Generation
			r.Group(func(r chi.Router) {
				if s.cfg.GenerateRateLimit > 0 {
					r.Use(middleware.RateLimitBySession(s.cfg.GenerateRateLimit))
				}
				r.Post("/generate/crud", genH.GenerateCRUD)
				r.Post("/generate/layers", genH.GenerateLayers)
			})

			// Session state
			r.Get("/session", sessH.GetSession)
			r.Delete("/session", sessH.ResetSession)
			r.Get("/session/history", sessH.History)
			r.Post("/session/pending-columns", sessH.AddPendingColumn)
			r.Delete("/session/pending-columns", sessH.ClearPendingColumns)
			r.Get("/relationships", sessH.ListRelationships)
			r.Post("/relationships", sessH.PutRelationship)
			r.Delete("/relationships", sessH.DeleteRelationship)

			// Catalogues
			r.Get("/frameworks", handler.Frameworks)
			r.Get("/datatypes", handler.Datatypes)
			r.Get("/layers", handler.Layers)
		})
	})

	// --- Embedded UI ---
	if s.cfg.EnableUI {
		distFS, err := fs.Sub(ui.Dist, "dist")
		if err != nil {
			s.logger.Error("failed to create sub filesystem for UI", "error", err)
		} else {
			fileServer := http.FileServer(http.FS(distFS))
			r.With(chimw.Compress(5)).Handle("/assets/*", fileServer)

			// Each view is a hash route inside index.html.
			spaHandler := func(w http.ResponseWriter, r *http.Request) {
				f, err := distFS.Open("index.html")
				if err != nil {
					http.Error(w, "UI not available", http.StatusNotFound)
					return
				}
				defer f.Close()
				stat, _ := f.Stat()
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				http.ServeContent(w, r, "index.html", stat.ModTime(), f.(io.ReadSeeker))
			}
			r.Get("/", spaHandler)
		}
	}

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the session store and
// every connected datasource answer a ping, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := make(map[string]string)

	if err := s.sessions.Ping(r.Context()); err != nil {
		checks["sessions"] = "error: " + err.Error()
		status = "degraded"
	} else {
		checks["sessions"] = "ok"
	}

	names := s.registry.List()
	if len(names) == 0 {
		checks["datasource"] = "not connected"
		status = "degraded"
	}
	for _, name := range names {
		conn, err := s.registry.Get(name)
		if err != nil {
			checks[name] = "error: " + err.Error()
			status = "degraded"
			continue
		}
		if err := conn.Ping(r.Context()); err != nil {
			checks[name] = "error: " + err.Error()
			status = "degraded"
		} else {
			checks[name] = "ok"
		}
	}

	httpStatus := http.StatusOK
	if status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled
// or a SIGINT or SIGTERM is received. It then drains in-flight requests
// before closing all database connections.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Generation waits on the model; the stream runs for as long as the
		// text takes to replay.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.registry.CloseAll()
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
