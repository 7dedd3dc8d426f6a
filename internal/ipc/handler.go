// Package ipc provides the local HTTP status API for the sorting engine.
package ipc

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cashm/note-sorter/internal/cycle"
	"github.com/cashm/note-sorter/internal/domain"
	"github.com/cashm/note-sorter/internal/input"
	"github.com/cashm/note-sorter/internal/store"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	DB          *sql.DB
	JournalRepo *store.JournalRepo
	TallyRepo   *store.TallyRepo
	Queue       *input.Queue
	Controller  *cycle.Controller
}

// IntentRequest is the body for POST /api/v1/intent.
type IntentRequest struct {
	Intent string `json:"intent"`
}

// HealthReply is the response for GET /api/v1/health.
type HealthReply struct {
	Status     string       `json:"status"`
	Phase      domain.Phase `json:"phase"`
	Sorting    bool         `json:"sorting_in_progress"`
	CycleCount int64        `json:"cycle_count"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthReply{
		Status:     "ok",
		Phase:      h.Controller.Phase(),
		Sorting:    h.Controller.Busy(),
		CycleCount: h.Controller.CycleCount(),
	})
}

// ListLog handles GET /api/v1/log?limit=N.
func (h *Handler) ListLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.JournalRepo.ListRecent(r.Context(), h.DB, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.TelemetryEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListTally handles GET /api/v1/tally.
func (h *Handler) ListTally(w http.ResponseWriter, r *http.Request) {
	totals, err := h.TallyRepo.ListTotals(r.Context(), h.DB)
	if err != nil {
		writeError(w, err)
		return
	}
	if totals == nil {
		totals = []domain.TallyTotal{}
	}
	writeJSON(w, http.StatusOK, totals)
}

// PostIntent handles POST /api/v1/intent. The intent goes through the same
// debounced queue as the physical buttons.
func (h *Handler) PostIntent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	intent := domain.Intent(req.Intent)
	switch intent {
	case domain.IntentStart, domain.IntentView, domain.IntentHome:
	default:
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "intent must be start, view, or home"})
		return
	}

	if !h.Queue.Offer(intent) {
		writeJSON(w, http.StatusConflict, APIError{Code: 409, Message: "intent dropped (debounced or queue full)"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var ee *domain.EngineError
	if errors.As(err, &ee) {
		writeJSON(w, http.StatusInternalServerError, APIError{Code: ee.Code, Message: ee.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: 500, Message: err.Error()})
}
