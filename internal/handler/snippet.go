package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/assistant"
	"github.com/sakif/snippet-lab/internal/model"
	"github.com/sakif/snippet-lab/internal/service"
)

// SnippetHandler serves the snippet collection: browsing, creating, the
// pin/favorite toggles, explain, and copy.
//
// The handler only speaks HTTP. Validation and business rules live in the
// service; AI calls live in the assistant.
type SnippetHandler struct {
	svc    *service.SnippetService
	asst   *assistant.Assistant
	logger *slog.Logger
}

func NewSnippetHandler(svc *service.SnippetService, asst *assistant.Assistant, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{svc: svc, asst: asst, logger: logger}
}

// ListResponse wraps the query result with the echoed view mode.
// The view mode never changes which snippets come back.
type ListResponse struct {
	View     model.ViewMode  `json:"view"`
	Count    int             `json:"count"`
	Snippets []model.Snippet `json:"snippets"`
}

// HandleList runs the query engine.
//
// HTTP: GET /api/snippets?q=hook&filter=pinned&view=list
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	category, err := model.ParseFilterCategory(params.Get("filter"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("filter", err.Error()))
		return
	}

	snippets, err := h.svc.Query(r.Context(), params.Get("q"), category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		View:     model.ParseViewMode(params.Get("view")),
		Count:    len(snippets),
		Snippets: snippets,
	})
}

// HandleCreate saves a snippet from the manual form.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"title": "...", "code": "...", "language": "go", "tags": ["x"]}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGet returns one snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleTogglePin flips the pinned flag.
//
// HTTP: POST /api/snippets/{id}/pin
func (h *SnippetHandler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.svc.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleToggleFavorite flips the favorite flag.
//
// HTTP: POST /api/snippets/{id}/favorite
func (h *SnippetHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleExplain explains the snippet, or toggles a cached explanation.
//
// HTTP: POST /api/snippets/{id}/explain
func (h *SnippetHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	exp, err := h.asst.Explain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// HandleCopy copies the snippet's code to the clipboard.
//
// HTTP: POST /api/snippets/{id}/copy
func (h *SnippetHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Copy(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCollections lists the collection set.
//
// HTTP: GET /api/collections
func (h *SnippetHandler) HandleCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.Collections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// HandleStats returns the dashboard numbers.
//
// HTTP: GET /api/stats
func (h *SnippetHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
