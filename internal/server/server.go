// Package server exposes the staylens operations as JSON tool endpoints.
//
//	GET  /healthz
//	GET  /tools
//	POST /tools/{name}
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/internal/version"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Tool describes one callable operation.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	run func(ctx context.Context, body []byte) (any, error)
}

// Server routes tool calls to a source client.
type Server struct {
	client source.Client
	tools  map[string]Tool
	router *mux.Router
	log    *slog.Logger
}

// New returns a server backed by client.
func New(client source.Client) *Server {
	s := &Server{
		client: client,
		router: mux.NewRouter(),
		log:    logger.Component("server"),
	}
	s.tools = s.registry()

	s.router.Use(s.requestID)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/tools", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/tools/{name}", s.handleCall).Methods(http.MethodPost)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr, "source", s.client.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "request_id", id, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
		"source":  s.client.Name(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	list := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"tools": list})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]
	tool, ok := s.tools[name]
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("unknown tool %q", name))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, err)
		return
	}

	result, err := tool.run(ctx, body)
	if err != nil {
		s.log.WarnContext(ctx, "tool failed", "tool", name, "request_id", RequestID(ctx), "kind", stay.KindOf(err).String(), "error", err)
		s.writeError(w, r, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StatusFor maps an operation error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case stay.KindOf(err) == stay.KindValidation:
		return http.StatusBadRequest
	case errors.Is(err, stay.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, stay.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, errorBody{
		Error:     err.Error(),
		Kind:      stay.KindOf(err).String(),
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
