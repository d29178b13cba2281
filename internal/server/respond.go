package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tomlord1122/todos-api/internal/api"
	"github.com/Tomlord1122/todos-api/internal/domain"
)

// apiHandler is a handler that returns its failure instead of writing it.
// handle turns the error into the error envelope, so handlers never build
// error responses themselves.
type apiHandler func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// writeError is the single place where errors become HTTP responses.
// Anything that is not a *domain.Error is treated as an internal failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domErr *domain.Error
	if !errors.As(err, &domErr) {
		domErr = domain.NewInternalError(err)
	}

	attrs := []any{
		slog.String("kind", string(domErr.Kind)),
		slog.Int("status", domErr.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	}
	if domErr.Status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", append(attrs, slog.Any("error", err))...)
	} else {
		s.log.DebugContext(r.Context(), "request rejected", append(attrs, slog.String("message", domErr.Message))...)
	}
	s.metrics.RecordError(string(domErr.Kind))

	message := domErr.Message
	if domErr.Kind == domain.KindInternal || message == "" {
		message = http.StatusText(domErr.Status)
	}
	respondWithJSON(w, domErr.Status, api.NewError(domErr.Status, message))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("error marshaling JSON response", slog.Any("error", err))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":{"status":500,"message":"Internal Server Error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
