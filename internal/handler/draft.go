package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippet-lab/internal/assistant"
	"github.com/sakif/snippet-lab/internal/service"
)

// DraftHandler serves draft editing sessions: the "new snippet" form with
// its AI generate button.
type DraftHandler struct {
	asst   *assistant.Assistant
	svc    *service.SnippetService
	logger *slog.Logger
}

func NewDraftHandler(asst *assistant.Assistant, svc *service.SnippetService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{asst: asst, svc: svc, logger: logger}
}

// GenerateRequest is the body of POST /api/drafts/{id}/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// DetectRequest is the body of POST /api/detect-language.
type DetectRequest struct {
	Code string `json:"code"`
}

// DetectResponse reports the detected language, if any.
type DetectResponse struct {
	Language string `json:"language"`
	Detected bool   `json:"detected"`
}

// HandleOpen starts an empty draft.
//
// HTTP: POST /api/drafts
func (h *DraftHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.asst.OpenSession())
}

// HandleGet returns the draft and whether a generation is running.
//
// HTTP: GET /api/drafts/{id}
func (h *DraftHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.asst.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleUpdate applies manual form edits.
//
// HTTP: PATCH /api/drafts/{id}
// REQUEST BODY: any subset of {"title","description","language","code","tags"}
func (h *DraftHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch assistant.DraftPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.asst.UpdateDraft(chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleGenerate fills the draft from a prompt.
//
// HTTP: POST /api/drafts/{id}/generate
// REQUEST BODY: {"prompt": "a debounce hook in TypeScript"}
func (h *DraftHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.asst.GenerateDraft(r.Context(), chi.URLParam(r, "id"), req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleSave turns the draft into a snippet and closes the session.
//
// HTTP: POST /api/drafts/{id}/save
func (h *DraftHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.svc.CreateFromSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleClose discards the draft.
//
// HTTP: DELETE /api/drafts/{id}
func (h *DraftHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.asst.CloseSession(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// HandleDetectLanguage runs the local detection rules. No AI call is made.
//
// HTTP: POST /api/detect-language
func (h *DraftHandler) HandleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	lang, ok := assistant.DetectLanguage(req.Code)
	writeJSON(w, http.StatusOK, DetectResponse{Language: lang, Detected: ok})
}
