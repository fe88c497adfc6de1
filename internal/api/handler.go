// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	practicesession "github.com/AngeberMerkel1/KarteikartenBot/internal/domain/practice_session"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/scheduler"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/service"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
)

// maxBodyBytes caps request bodies, import documents included.
const maxBodyBytes = 4 << 20

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	store    store.Store
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(s store.Store, sessions *service.SessionService, logger *slog.Logger) *Handler {
	return &Handler{
		store:    s,
		sessions: sessions,
		logger:   logger,
	}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error    string   `json:"error" example:"topic not found"`
	Problems []string `json:"problems,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// validator is implemented by request bodies that check themselves.
type validator interface {
	Validate() error
}

// decodeAndValidate decodes the JSON body into v and validates it. On failure
// it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v validator) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathParam returns the decoded chi URL parameter. chi matches on
// r.URL.RawPath when it is set (e.g. for an escaped "/"), and only then is the
// value still escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// handleError maps domain and store errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *importer.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid document", Problems: verr.Problems})
	case errors.As(err, &tooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, store.ErrTopicNotFound):
		respondError(w, http.StatusNotFound, "topic not found")
	case errors.Is(err, store.ErrChapterNotFound):
		respondError(w, http.StatusNotFound, "chapter not found")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, scheduler.ErrNoQuestionsAvailable),
		errors.Is(err, practicesession.ErrInvalidTransition),
		errors.Is(err, practicesession.ErrNoTopicSelected),
		errors.Is(err, practicesession.ErrNoChapterSelected),
		errors.Is(err, practicesession.ErrNoCurrentQuestion):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
