// Package api exposes tree editors over HTTP for a canvas front end.
//
// Every route below /trees/{tree} works on one editor from a [Registry]. The
// response to a successful change is the refreshed canvas.View, so a client
// never has to re-derive levels, positions or edge orientation itself.
//
//	GET    /healthz
//	GET    /version
//	GET    /trees
//	GET    /trees/{tree}/view
//	GET    /trees/{tree}/export?format=json|yaml|dot|svg
//	POST   /trees/{tree}/people
//	GET    /trees/{tree}/people/{id}
//	PATCH  /trees/{tree}/people/{id}
//	DELETE /trees/{tree}/people/{id}
//	POST   /trees/{tree}/people/{id}/quick-add
//	PUT    /trees/{tree}/people/{id}/position
//	POST   /trees/{tree}/relationships
//	DELETE /trees/{tree}/relationships/{id}
//	POST   /trees/{tree}/relayout
//	POST   /trees/{tree}/positions
//	PUT    /trees/{tree}/mode
//	POST   /trees/{tree}/mode/toggle
//	PUT    /trees/{tree}/selection
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kintree/pkg/buildinfo"
)

// Server serves the HTTP API.
type Server struct {
	trees  *Registry
	logger *log.Logger
	router chi.Router
}

// New creates a server over a registry.
func New(trees *Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{trees: trees, logger: logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})
	r.Get("/trees", s.listTrees)

	r.Route("/trees/{tree}", func(r chi.Router) {
		r.Use(s.withEditor)
		r.Get("/view", s.getView)
		r.Get("/export", s.export)

		r.Post("/people", s.addPerson)
		r.Route("/people/{id}", func(r chi.Router) {
			r.Get("/", s.getPerson)
			r.Patch("/", s.updatePerson)
			r.Delete("/", s.deletePerson)
			r.Post("/quick-add", s.quickAdd)
			r.Put("/position", s.moveNode)
		})

		r.Post("/relationships", s.connect)
		r.Delete("/relationships/{id}", s.disconnect)

		r.Post("/relayout", s.relayout)
		r.Post("/positions", s.savePositions)
		r.Put("/mode", s.setMode)
		r.Post("/mode/toggle", s.toggleMode)
		r.Put("/selection", s.selectNode)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.trees.Close(shutdownCtx)
	}
}
