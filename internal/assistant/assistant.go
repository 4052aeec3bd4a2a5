// Package assistant turns the generation endpoint into three features:
// drafting a snippet from a prompt, explaining a saved snippet, and a cheap
// local language guess for code being typed into a draft.
//
// HOW THE ENDPOINT IS USED:
// The endpoint is an opaque llm.Generator. The assistant never knows which
// provider is behind it. Every call gets its own deadline (Config.Timeout)
// on top of whatever the caller's context already carries, so a stuck
// provider can't pin a request forever.
//
// CONCURRENCY:
// HTTP handlers call in from many goroutines. Shared state (draft sessions,
// explanation visibility, in-flight markers) lives behind one mutex, and the
// mutex is NEVER held across a network call. Instead a call is marked
// "in flight" under the lock, the lock is released, and a second caller for
// the same session or snippet gets a conflict error instead of a duplicate
// network request.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/llm"
	"github.com/sakif/snippet-lab/internal/model"
	"github.com/sakif/snippet-lab/internal/notify"
	"github.com/sakif/snippet-lab/internal/repository"
)

// User-visible notification texts.
const (
	MsgPromptRequired    = "Enter a prompt for the AI"
	MsgGenerated         = "Snippet generated with AI!"
	MsgGenerationFailed  = "Generation failed"
	MsgExplanationFailed = "Error connecting to AI"
)

// DefaultTimeout bounds a single endpoint call when none is configured.
const DefaultTimeout = 60 * time.Second

// Config carries the endpoint settings the assistant needs.
type Config struct {
	Model   string        // model identifier passed on every call
	Timeout time.Duration // per-call deadline, 0 means DefaultTimeout
}

// Assistant owns draft sessions and the per-snippet explanation state.
type Assistant struct {
	gen      llm.Generator
	snippets repository.SnippetRepository
	notifier notify.Notifier
	logger   *slog.Logger
	cfg      Config

	mu         sync.Mutex
	sessions   map[string]*session
	explaining map[string]bool // snippet IDs with an explain call in flight
	visible    map[string]bool // snippet IDs whose explanation is shown
}

type session struct {
	draft      model.Draft
	generating bool
}

// Session is a snapshot of a draft editing session.
type Session struct {
	ID         string      `json:"id"`
	Draft      model.Draft `json:"draft"`
	Generating bool        `json:"generating"`
}

// Explanation is the result of an explain request.
type Explanation struct {
	SnippetID   string `json:"snippetId"`
	Explanation string `json:"explanation"`
	Visible     bool   `json:"visible"`
	Cached      bool   `json:"cached"`
}

// DraftPatch holds the draft fields a client wants to change.
// nil means "leave as is".
type DraftPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Language    *string   `json:"language"`
	Code        *string   `json:"code"`
	Tags        *[]string `json:"tags"`
}

func New(gen llm.Generator, snippets repository.SnippetRepository, notifier notify.Notifier, cfg Config, logger *slog.Logger) *Assistant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Assistant{
		gen:        gen,
		snippets:   snippets,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
		sessions:   make(map[string]*session),
		explaining: make(map[string]bool),
		visible:    make(map[string]bool),
	}
}

// OpenSession starts an empty draft.
func (a *Assistant) OpenSession() Session {
	id := xid.New().String()
	s := &session{draft: model.Draft{Tags: []string{}}}

	a.mu.Lock()
	a.sessions[id] = s
	a.mu.Unlock()

	a.logger.Debug("draft session opened", slog.String("session", id))
	return Session{ID: id, Draft: s.draft.Clone()}
}

// Session returns a snapshot of the session.
func (a *Assistant) Session(id string) (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[id]
	if !ok {
		return Session{}, apperror.NotFound("draft session", id)
	}
	return Session{ID: id, Draft: s.draft.Clone(), Generating: s.generating}, nil
}

// UpdateDraft applies patch to the session's draft.
//
// A language given by the client is upper-cased. When the code changes and
// the draft still has no language, DetectLanguage fills it in; a language
// that is already set is never overwritten.
func (a *Assistant) UpdateDraft(id string, patch DraftPatch) (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[id]
	if !ok {
		return Session{}, apperror.NotFound("draft session", id)
	}

	d := &s.draft
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Language != nil {
		d.Language = model.NormalizeLanguage(*patch.Language)
	}
	if patch.Tags != nil {
		d.Tags = append([]string{}, (*patch.Tags)...)
	}
	if patch.Code != nil {
		d.Code = *patch.Code
		if d.Language == "" {
			if lang, ok := DetectLanguage(d.Code); ok {
				d.Language = lang
			}
		}
	}

	return Session{ID: id, Draft: s.draft.Clone(), Generating: s.generating}, nil
}

// CloseSession discards a draft. Closing an unknown session is not an error.
func (a *Assistant) CloseSession(id string) {
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()
}

// GenerateDraft asks the endpoint for a snippet matching prompt and, on
// success, replaces the session's draft fields with the result.
//
// A blank prompt is rejected before any network call. Endpoint failures and
// undecodable responses both surface as apperror.ErrGeneration; the draft is
// left untouched in either case.
func (a *Assistant) GenerateDraft(ctx context.Context, sessionID, prompt string) (Session, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		a.notifier.Notify(MsgPromptRequired, notify.Error)
		return Session{}, apperror.ValidationFailed("prompt", "prompt is required")
	}

	a.mu.Lock()
	s, ok := a.sessions[sessionID]
	if !ok {
		a.mu.Unlock()
		return Session{}, apperror.NotFound("draft session", sessionID)
	}
	if s.generating {
		a.mu.Unlock()
		return Session{}, apperror.Conflict("a generation is already in progress for this draft")
	}
	s.generating = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		s.generating = false
		a.mu.Unlock()
	}()

	text, err := a.call(ctx, draftPrompt(prompt))
	if err != nil {
		a.logger.Error("draft generation failed",
			slog.String("session", sessionID),
			slog.String("error", err.Error()),
		)
		a.notifier.Notify(MsgGenerationFailed, notify.Error)
		return Session{}, apperror.GenerationFailed(err)
	}

	draft, err := ParseDraft(text)
	if err != nil {
		a.logger.Warn("draft response rejected",
			slog.String("session", sessionID),
			slog.String("error", err.Error()),
		)
		a.notifier.Notify(MsgGenerationFailed, notify.Error)
		return Session{}, apperror.MalformedResponse(err)
	}

	a.mu.Lock()
	if _, ok := a.sessions[sessionID]; !ok {
		// Closed while the call was in flight.
		a.mu.Unlock()
		return Session{}, apperror.NotFound("draft session", sessionID)
	}
	s.draft = draft
	out := Session{ID: sessionID, Draft: s.draft.Clone()}
	a.mu.Unlock()

	a.logger.Info("draft generated",
		slog.String("session", sessionID),
		slog.String("language", draft.Language),
	)
	a.notifier.Notify(MsgGenerated, notify.Success)
	return out, nil
}

// Explain returns an explanation of the snippet's code.
//
// The first successful call caches the explanation on the snippet and makes
// it visible. Every later call is served from the cache and only flips the
// visibility, so a snippet costs at most one endpoint call. A failed call
// caches nothing and leaves visibility unchanged.
//
// The snippet is read only after the in-flight marker is taken, so a caller
// that lost the race to a finished call sees its cached text.
func (a *Assistant) Explain(ctx context.Context, snippetID string) (Explanation, error) {
	a.mu.Lock()
	if a.explaining[snippetID] {
		a.mu.Unlock()
		return Explanation{}, apperror.Conflict("an explanation is already in progress for this snippet")
	}
	a.explaining[snippetID] = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.explaining, snippetID)
		a.mu.Unlock()
	}()

	sn, err := a.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return Explanation{}, err
	}

	if sn.Explanation != "" {
		a.mu.Lock()
		a.visible[snippetID] = !a.visible[snippetID]
		out := Explanation{
			SnippetID:   snippetID,
			Explanation: sn.Explanation,
			Visible:     a.visible[snippetID],
			Cached:      true,
		}
		a.mu.Unlock()
		return out, nil
	}

	text, err := a.call(ctx, explainPrompt(sn.Code))
	if err != nil {
		a.logger.Error("explanation failed",
			slog.String("snippet", snippetID),
			slog.String("error", err.Error()),
		)
		a.notifier.Notify(MsgExplanationFailed, notify.Error)
		return Explanation{}, apperror.GenerationFailed(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = FallbackExplanation
	}

	if _, err := a.snippets.SetExplanation(ctx, snippetID, text); err != nil {
		a.logger.Error("caching explanation failed",
			slog.String("snippet", snippetID),
			slog.String("error", err.Error()),
		)
		a.notifier.Notify(MsgExplanationFailed, notify.Error)
		return Explanation{}, fmt.Errorf("caching explanation: %w", err)
	}

	a.mu.Lock()
	a.visible[snippetID] = true
	a.mu.Unlock()

	a.logger.Info("explanation cached", slog.String("snippet", snippetID))
	return Explanation{SnippetID: snippetID, Explanation: text, Visible: true}, nil
}

// ExplanationVisible reports whether the snippet's explanation is shown.
func (a *Assistant) ExplanationVisible(snippetID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible[snippetID]
}

func (a *Assistant) call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	return a.gen.Generate(ctx, a.cfg.Model, prompt)
}
