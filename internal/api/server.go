package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// QueryRunner executes a built query to completion. Satisfied by
// *executor.Executor.
type QueryRunner interface {
	Run(ctx context.Context, sql string) ([]map[string]string, error)
}

type Server struct {
	router *chi.Mux
	port   int
	runner QueryRunner
	logger *slog.Logger
}

func NewServer(port int, runner QueryRunner, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(corsHeaders)

	s := &Server{
		router: router,
		port:   port,
		runner: runner,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/chats", s.chats)
	router.Options("/api/v1/chats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// The retrieval surface is consumed by browsers; GET and preflight only.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		h.Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
