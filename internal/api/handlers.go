package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tgienger/tabdo/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// pathID parses a route variable; routes constrain it to digits
func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

// handleRegister handles POST /api/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "userId": u.ID})
}

// handleLogin handles POST /api/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

// handleLogout handles POST /api/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleBoard handles GET /api/tasks, optionally filtered with ?tab=ID or ?tab=none
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.Board(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	tasks := board.Tasks
	if tab := r.URL.Query().Get("tab"); tab != "" {
		var tabID *int64
		if tab != "none" {
			id, err := strconv.ParseInt(tab, 10, 64)
			if err != nil {
				writeError(w, r, errBadRequest)
				return
			}
			tabID = &id
		}
		tasks = board.ForTab(tabID)
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Tabs    []models.Tab  `json:"tabs"`
		Tasks   []models.Task `json:"tasks"`
	}{true, board.Tabs, tasks})
}

// handleCreateTab handles POST /api/tabs
func (s *Server) handleCreateTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TabName string `json:"tabName"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tab, err := s.svc.CreateTab(r.Context(), UserID(r.Context()), req.TabName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tabId": tab.ID, "tabName": tab.Name})
}

// handleDeleteTab handles DELETE /api/tabs/{tabID}
func (s *Server) handleDeleteTab(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTab(r.Context(), UserID(r.Context()), pathID(r, "tabID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleCreateTask handles POST /api/tasks
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TabID flexID `json:"tabId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.svc.CreateTask(r.Context(), UserID(r.Context()), req.TabID.Ptr())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"id":        task.ID,
		"task":      task.Text,
		"completed": task.Completed,
	})
}

// handleReorder handles POST /api/tasks/order
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []flexID `json:"order"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order := make([]int64, 0, len(req.Order))
	for _, id := range req.Order {
		if id.Valid {
			order = append(order, id.ID)
		}
	}
	if err := s.svc.Reorder(r.Context(), UserID(r.Context()), order); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleEditTask handles PUT /api/tasks/{taskID}
func (s *Server) handleEditTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text, err := s.svc.EditTaskText(r.Context(), UserID(r.Context()), pathID(r, "taskID"), req.NewName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "new_name": text})
}

// handleToggleTask handles POST /api/tasks/{taskID}/toggle
func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	completed, err := s.svc.ToggleTask(r.Context(), UserID(r.Context()), pathID(r, "taskID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "completed": completed})
}

// handleDeleteTask handles DELETE /api/tasks/{taskID}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTask(r.Context(), UserID(r.Context()), pathID(r, "taskID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListSubtasks handles GET /api/tasks/{taskID}/subtasks
func (s *Server) handleListSubtasks(w http.ResponseWriter, r *http.Request) {
	subtasks, err := s.svc.ListSubtasks(r.Context(), UserID(r.Context()), pathID(r, "taskID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "subtasks": subtasks})
}

// handleCreateSubtask handles POST /api/tasks/{taskID}/subtasks
func (s *Server) handleCreateSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subtask string `json:"subtask"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.CreateSubtask(r.Context(), UserID(r.Context()), pathID(r, "taskID"), req.Subtask)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "subtask_id": st.ID, "subtask": st.Name})
}

// handleEditSubtask handles PUT /api/subtasks/{subtaskID}
func (s *Server) handleEditSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	name, err := s.svc.EditSubtaskName(r.Context(), UserID(r.Context()), pathID(r, "subtaskID"), req.NewName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "new_name": name})
}

// handleToggleSubtask handles POST /api/subtasks/{subtaskID}/toggle
func (s *Server) handleToggleSubtask(w http.ResponseWriter, r *http.Request) {
	completed, err := s.svc.ToggleSubtask(r.Context(), UserID(r.Context()), pathID(r, "subtaskID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "completed": completed})
}

// handleDeleteSubtask handles DELETE /api/subtasks/{subtaskID}
func (s *Server) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSubtask(r.Context(), UserID(r.Context()), pathID(r, "subtaskID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
