package server

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/Tomlord1122/todos-api/internal/api"
	"github.com/Tomlord1122/todos-api/internal/domain"
	appmetrics "github.com/Tomlord1122/todos-api/internal/metrics"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logRequests)
	r.Use(s.recordMetrics)
	r.Use(s.recoverPanics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return &domain.Error{Kind: domain.KindNotFound, Status: http.StatusNotFound, Message: domain.MsgRouteNotFound}
	}))
	r.MethodNotAllowed(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return &domain.Error{Kind: domain.KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Message: domain.MsgMethodNotAllowed}
	}))

	r.Get("/health", s.handle(s.healthHandler))

	if s.gatherer != nil {
		r.Handle("/metrics", appmetrics.Handler(s.gatherer))
	}

	r.Route(s.todosPath(), func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.rateLimit)
		}
		r.Get("/", s.handle(s.getAllTodosHandler))
		r.Post("/", s.handle(s.createTodoHandler))
		r.Get("/{id}", s.handle(s.getTodoByIDHandler))
		r.Patch("/{id}", s.handle(s.updateTodoHandler))
		r.Delete("/{id}", s.handle(s.deleteTodoHandler))
	})

	return r
}

func (s *Server) todosPath() string {
	return path.Join("/", s.cfg.BasePath, "todos")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) error {
	healthStats := s.health.Health(r.Context())
	if status, ok := healthStats["status"]; ok && status == "down" {
		return &domain.Error{
			Kind:    domain.KindUnavailable,
			Status:  http.StatusServiceUnavailable,
			Message: "Service Unavailable",
		}
	}
	respondWithJSON(w, http.StatusOK, api.NewSuccess(healthStats))
	return nil
}

func (s *Server) getAllTodosHandler(w http.ResponseWriter, r *http.Request) error {
	todos, err := s.todoService.ListTodos(r.Context())
	if err != nil {
		return err
	}
	respondWithJSON(w, http.StatusOK, api.NewSuccess(todos))
	return nil
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) error {
	var req api.CreateTodoRequest
	if err := decodeJSONBody(w, r, createTodoSchema, &req); err != nil {
		return err
	}

	todo, err := s.todoService.CreateTodo(r.Context(), req)
	if err != nil {
		return err
	}

	w.Header().Set("Location", path.Join(s.todosPath(), todo.ID))
	respondWithJSON(w, http.StatusCreated, api.NewSuccess(todo))
	return nil
}

func (s *Server) getTodoByIDHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := todoID(r)
	if err != nil {
		return err
	}

	todo, err := s.todoService.GetTodoByID(r.Context(), id)
	if err != nil {
		return err
	}
	respondWithJSON(w, http.StatusOK, api.NewSuccess(todo))
	return nil
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := todoID(r)
	if err != nil {
		return err
	}

	var req api.UpdateTodoRequest
	if err := decodeJSONBody(w, r, updateTodoSchema, &req); err != nil {
		return err
	}

	todo, err := s.todoService.UpdateTodo(r.Context(), id, req)
	if err != nil {
		return err
	}
	respondWithJSON(w, http.StatusOK, api.NewSuccess(todo))
	return nil
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := todoID(r)
	if err != nil {
		return err
	}

	if err := s.todoService.DeleteTodo(r.Context(), id); err != nil {
		return err
	}
	// net/http drops the body of a 204 on the wire; in-process callers still
	// see the envelope.
	respondWithJSON(w, http.StatusNoContent, api.NewSuccess[any](nil))
	return nil
}

// todoID reads the {id} path parameter. Anything that is not a UUID cannot
// name a stored todo, so it is reported as not found.
func todoID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", domain.NewNotFoundError()
	}
	return id.String(), nil
}
