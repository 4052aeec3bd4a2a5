// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the snippet store
//
// The service never sees an *http.Request and never returns a status code.
// It returns apperror values and the handler translates them.
//
// THE DEPENDENCY CHAIN:
//
//	server.New creates:  Store → Assistant → SnippetService → Handlers
//	At runtime:          Handler calls Service calls Store (and Query Engine)
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/assistant"
	"github.com/sakif/snippet-lab/internal/clipboard"
	"github.com/sakif/snippet-lab/internal/model"
	"github.com/sakif/snippet-lab/internal/notify"
	"github.com/sakif/snippet-lab/internal/query"
	"github.com/sakif/snippet-lab/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength = 100
	MaxCodeLength  = 100000 // characters, not bytes
)

// User-visible notification texts.
const (
	MsgSaved  = "Snippet saved successfully!"
	MsgCopied = "Code copied!"
)

// DraftSource hands out draft sessions for saving. *assistant.Assistant
// satisfies it.
type DraftSource interface {
	Session(id string) (assistant.Session, error)
	CloseSession(id string)
}

// CreateInput is the manual form submission.
type CreateInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Code         string   `json:"code"`
	Language     string   `json:"language"`
	Tags         []string `json:"tags"`
	CollectionID string   `json:"collectionId"`
}

// SnippetService handles business logic for code snippets.
//
// All fields are injected. toggleMu serialises the read-then-write of the
// pin and favorite toggles so two concurrent toggles can't both read the
// same old value.
type SnippetService struct {
	store     repository.Store
	drafts    DraftSource
	notifier  notify.Notifier
	clipboard clipboard.Writer
	logger    *slog.Logger

	toggleMu sync.Mutex
}

func NewSnippetService(
	store repository.Store,
	drafts DraftSource,
	notifier notify.Notifier,
	cb clipboard.Writer,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		store:     store,
		drafts:    drafts,
		notifier:  notifier,
		clipboard: cb,
		logger:    logger,
	}
}

// Create validates and saves a new snippet from the manual form.
//
// The title is trimmed and required, as is the code. The language is
// upper-cased and falls back to model.DefaultLanguage. New snippets start
// unpinned, not favorite, with zero views. Tags are trimmed and blank ones
// dropped; duplicates are kept.
func (s *SnippetService) Create(ctx context.Context, in CreateInput) (*model.Snippet, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(in.Code) == "" {
		return nil, apperror.ValidationFailed("code", "code is required")
	}
	if utf8.RuneCountInString(in.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	collectionID := strings.TrimSpace(in.CollectionID)
	if collectionID != "" {
		if _, err := s.store.GetCollection(ctx, collectionID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("collectionId",
					fmt.Sprintf("unknown collection %q", collectionID))
			}
			return nil, fmt.Errorf("looking up collection: %w", err)
		}
	}

	language := model.NormalizeLanguage(in.Language)
	if language == "" {
		language = model.DefaultLanguage
	}

	snippet := &model.Snippet{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Code:         in.Code,
		Language:     language,
		Tags:         cleanTags(in.Tags),
		CollectionID: collectionID,
	}

	if err := s.store.Add(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
		slog.String("language", snippet.Language),
	)
	s.notifier.Notify(MsgSaved, notify.Success)

	return snippet, nil
}

// CreateFromSession saves the session's draft under the same rules as
// Create and closes the session. A draft that fails validation leaves the
// session open so it can be fixed.
func (s *SnippetService) CreateFromSession(ctx context.Context, sessionID string) (*model.Snippet, error) {
	sess, err := s.drafts.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Generating {
		return nil, apperror.Conflict("the draft is still being generated")
	}

	snippet, err := s.Create(ctx, CreateInput{
		Title:       sess.Draft.Title,
		Description: sess.Draft.Description,
		Code:        sess.Draft.Code,
		Language:    sess.Draft.Language,
		Tags:        sess.Draft.Tags,
	})
	if err != nil {
		return nil, err
	}

	s.drafts.CloseSession(sessionID)
	return snippet, nil
}

// Query returns the displayable snippets for a search string and filter.
func (s *SnippetService) Query(ctx context.Context, search string, category model.FilterCategory) ([]model.Snippet, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return query.Filter(all, search, category), nil
}

// Get retrieves a snippet by its ID.
func (s *SnippetService) Get(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.store.GetByID(ctx, id)
}

// TogglePin flips the pinned flag.
func (s *SnippetService) TogglePin(ctx context.Context, id string) (*model.Snippet, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.SetPinned(ctx, current.ID, !current.IsPinned)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snippet pin toggled",
		slog.String("id", updated.ID),
		slog.Bool("pinned", updated.IsPinned),
	)
	return updated, nil
}

// ToggleFavorite flips the favorite flag.
func (s *SnippetService) ToggleFavorite(ctx context.Context, id string) (*model.Snippet, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.SetFavorite(ctx, current.ID, !current.IsFavorite)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snippet favorite toggled",
		slog.String("id", updated.ID),
		slog.Bool("favorite", updated.IsFavorite),
	)
	return updated, nil
}

// Copy puts the snippet's code on the clipboard.
func (s *SnippetService) Copy(ctx context.Context, id string) error {
	snippet, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clipboard.Copy(snippet.Code); err != nil {
		s.logger.Error("clipboard write failed",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("copying snippet: %w", err)
	}
	s.notifier.Notify(MsgCopied, notify.Success)
	return nil
}

// Collections returns the collection set.
func (s *SnippetService) Collections(ctx context.Context) ([]model.Collection, error) {
	cols, err := s.store.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return cols, nil
}

// Stats summarises the store for the dashboard. The top language is the
// most used one; ties go to the alphabetically first tag.
func (s *SnippetService) Stats(ctx context.Context) (model.Stats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("listing snippets: %w", err)
	}

	st := model.Stats{Total: len(all), ByLanguage: make(map[string]int)}
	for _, sn := range all {
		st.Views += sn.Views
		st.ByLanguage[sn.Language]++
	}
	st.Languages = len(st.ByLanguage)

	langs := make([]string, 0, len(st.ByLanguage))
	for l := range st.ByLanguage {
		langs = append(langs, l)
	}
	slices.SortFunc(langs, func(a, b string) int {
		if c := cmp.Compare(st.ByLanguage[b], st.ByLanguage[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(langs) > 0 {
		st.TopLanguage = langs[0]
	}
	return st, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
