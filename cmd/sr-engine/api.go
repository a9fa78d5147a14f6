package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"StreamRank/internal/engine/manager"
	"StreamRank/internal/summary"

	"github.com/gorilla/mux"
)

// APIHandler serves live top-k views straight from the manager's tasks.
type APIHandler struct {
	manager *manager.Manager
}

func newRouter(mgr *manager.Manager) *mux.Router {
	apiHandler := &APIHandler{manager: mgr}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/tasks", apiHandler.tasksHandler).Methods("GET")
	r.HandleFunc("/api/v1/top/{task}", apiHandler.topHandler).Methods("GET")
	return r
}

type topResponse struct {
	Task     string            `json:"task"`
	K        int               `json:"k"`
	Elements []summary.Element `json:"elements"`
}

// tasksHandler lists the configured task names.
func (h *APIHandler) tasksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"tasks": h.manager.TaskNames()})
}

// topHandler serves the current top-k of a task, default k=10.
func (h *APIHandler) topHandler(w http.ResponseWriter, r *http.Request) {
	taskName := mux.Vars(r)["task"]

	k := 10
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid k: %v", err), http.StatusBadRequest)
			return
		}
		k = parsed
	}

	elements, err := h.manager.Top(taskName, k)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query top elements: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, topResponse{Task: taskName, K: k, Elements: elements})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
