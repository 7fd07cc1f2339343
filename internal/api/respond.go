package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/tgienger/tabdo/internal/todo"
)

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes; anything unrecognized is logged and hidden
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, todo.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, todo.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, todo.ErrEmptyName), errors.Is(err, todo.ErrEmptyInput), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, todo.ErrUnauthenticated):
		status = http.StatusUnauthorized
	default:
		log.Printf("%s %s %s: %v", RequestID(r.Context()), r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, failure{Error: "internal error"})
		return
	}

	kind := todo.Kind(err)
	if errors.Is(err, errBadRequest) {
		kind = "BadRequest"
	}
	writeJSON(w, status, failure{Error: kind, Message: err.Error()})
}

var errBadRequest = errors.New("bad request")

// decode reads a JSON body into v
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request payload", errBadRequest)
	}
	return nil
}

// flexID accepts a JSON number, a digit string, or null/"" for no id
type flexID struct {
	ID    int64
	Valid bool
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexID{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = flexID{}
			return nil
		}
		b = []byte(s)
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", b)
	}
	*f = flexID{ID: id, Valid: true}
	return nil
}

// Ptr returns the id as a pointer, nil when absent
func (f flexID) Ptr() *int64 {
	if !f.Valid {
		return nil
	}
	id := f.ID
	return &id
}
