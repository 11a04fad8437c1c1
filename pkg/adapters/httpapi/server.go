// Package httpapi exposes the dialogue engine over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/parley-dev/parley"
	"github.com/parley-dev/parley/pkg/domain"
)

// Server routes HTTP requests to a parley Engine.
type Server struct {
	engine   *parley.Engine
	executor parley.ExecuteFunc
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithExecutor sets the side-effecting action executor invoked by the
// execute endpoint. The default acknowledges without doing anything.
func WithExecutor(fn parley.ExecuteFunc) Option {
	return func(s *Server) { s.executor = fn }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine *parley.Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", s.createConversation)
		r.Get("/", s.listConversations)
		r.Route("/{conversationID}", func(r chi.Router) {
			r.Get("/", s.getConversation)
			r.Delete("/", s.deleteConversation)
			r.Post("/turns", s.processTurn)
			r.Post("/execute", s.executeAction)
			r.Post("/end", s.endConversation)
		})
	})
	r.Get("/tasks", s.listTasks)
	r.Get("/healthz", s.health)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type turnRequest struct {
	Utterance string `json:"utterance"`
}

// turnResponse wraps a TurnResult with its action kind so clients can
// dispatch without inspecting which fields are populated.
type turnResponse struct {
	Action domain.ActionKind `json:"action"`
	Result domain.TurnResult `json:"result"`
}

type conversationCreated struct {
	ConversationID string `json:"conversationId"`
}

type taskInfo struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	id, err := s.engine.StartConversation(r.Context())
	if err != nil {
		s.serverError(w, "failed to start conversation", err)
		return
	}
	s.respond(w, http.StatusCreated, conversationCreated{ConversationID: id})
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Conversations(r.Context())
	if err != nil {
		s.serverError(w, "failed to list conversations", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.respond(w, http.StatusOK, ids)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	state, err := s.engine.Conversation(r.Context(), id)
	if err != nil {
		if err == domain.ErrSessionNotFound {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		s.serverError(w, "failed to load conversation", err)
		return
	}
	s.respond(w, http.StatusOK, state)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if err := s.engine.DeleteConversation(r.Context(), id); err != nil {
		s.serverError(w, "failed to delete conversation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) processTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var body turnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), id, body.Utterance)
	if err != nil {
		s.serverError(w, "turn failed", err)
		return
	}
	s.respond(w, http.StatusOK, turnResponse{Action: result.Kind(), Result: result})
}

func (s *Server) executeAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	err := s.engine.Execute(r.Context(), id, func(ctx context.Context, task string, slots map[string]string) error {
		if s.executor == nil {
			return nil
		}
		return s.executor(ctx, task, slots)
	})
	if err != nil {
		s.serverError(w, "execution failed", err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) endConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if err := s.engine.EndConversation(r.Context(), id); err != nil {
		if err == domain.ErrSessionNotFound {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		s.serverError(w, "failed to end conversation", err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "terminated"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	registry := s.engine.Registry()
	names := registry.Tasks()
	infos := make([]taskInfo, 0, len(names))
	for _, name := range names {
		task, err := registry.Task(name)
		if err != nil {
			continue
		}
		infos = append(infos, taskInfo{Name: task.Name, Slots: task.SlotNames()})
	}
	s.respond(w, http.StatusOK, infos)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "err", err)
	http.Error(w, msg, http.StatusInternalServerError)
}
