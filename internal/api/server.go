package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tgienger/tabdo/internal/auth"
	"github.com/tgienger/tabdo/internal/todo"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "session"

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

// Server exposes the task service over HTTP
type Server struct {
	svc    *todo.Service
	tokens *auth.Tokens
	ttl    time.Duration
	router *mux.Router
}

// NewServer creates a server and registers its routes
func NewServer(svc *todo.Service, tokens *auth.Tokens, sessionTTL time.Duration) *Server {
	s := &Server{
		svc:    svc,
		tokens: tokens,
		ttl:    sessionTTL,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(requestID, logRequests, recoverPanics)

	s.router.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.requireUser)

	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.handleBoard).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/order", s.handleReorder).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID:[0-9]+}", s.handleEditTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{taskID:[0-9]+}", s.handleDeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{taskID:[0-9]+}/toggle", s.handleToggleTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID:[0-9]+}/subtasks", s.handleListSubtasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID:[0-9]+}/subtasks", s.handleCreateSubtask).Methods(http.MethodPost)

	api.HandleFunc("/tabs", s.handleCreateTab).Methods(http.MethodPost)
	api.HandleFunc("/tabs/{tabID:[0-9]+}", s.handleDeleteTab).Methods(http.MethodDelete)

	api.HandleFunc("/subtasks/{subtaskID:[0-9]+}", s.handleEditSubtask).Methods(http.MethodPut)
	api.HandleFunc("/subtasks/{subtaskID:[0-9]+}", s.handleDeleteSubtask).Methods(http.MethodDelete)
	api.HandleFunc("/subtasks/{subtaskID:[0-9]+}/toggle", s.handleToggleSubtask).Methods(http.MethodPost)
}

// requireUser resolves the session token into a user id or rejects the request
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, r, todo.ErrUnauthenticated)
			return
		}
		userID, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, r, todo.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, userID)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// UserID returns the authenticated user id, or 0 outside requireUser
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey).(int64)
	return id
}

// RequestID returns the id assigned to the current request
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %s %d %s", RequestID(r.Context()), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := w.(*statusRecorder)
		if !ok {
			rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		}
		defer func() {
			if v := recover(); v != nil {
				log.Printf("%s panic: %v", RequestID(r.Context()), v)
				// the client already has a status line; the body is cut short
				if rec.wroteHeader {
					return
				}
				writeJSON(rec, http.StatusInternalServerError, failure{Error: "internal error"})
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
