// Package memory implements the repository interfaces with plain Go slices.
//
// This is the default Snippet Store. The snippet sequence is a slice kept
// newest first; Add prepends. Everything is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/model"
	"github.com/sakif/snippet-lab/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store holds snippets and collections in memory.
// HTTP handlers run concurrently, so every access goes through mu.
type Store struct {
	mu          sync.RWMutex
	snippets    []model.Snippet // newest first
	collections []model.Collection
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Close is a no-op; it exists so Store satisfies repository.Store.
func (s *Store) Close() error { return nil }

func (s *Store) Add(_ context.Context, snippet *model.Snippet) error {
	now := s.now()
	snippet.ID = xid.New().String()
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = now
	}
	snippet.UpdatedAt = time.Time{}
	snippet.Touch(now)
	if snippet.Tags == nil {
		snippet.Tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snippets = append([]model.Snippet{snippet.Clone()}, s.snippets...)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("snippet", id)
	}
	found := s.snippets[i].Clone()
	return &found, nil
}

func (s *Store) List(_ context.Context) ([]model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Snippet, len(s.snippets))
	for i, sn := range s.snippets {
		out[i] = sn.Clone()
	}
	return out, nil
}

func (s *Store) SetPinned(_ context.Context, id string, pinned bool) (*model.Snippet, error) {
	return s.update(id, func(sn *model.Snippet) { sn.IsPinned = pinned })
}

func (s *Store) SetFavorite(_ context.Context, id string, favorite bool) (*model.Snippet, error) {
	return s.update(id, func(sn *model.Snippet) { sn.IsFavorite = favorite })
}

func (s *Store) SetExplanation(_ context.Context, id, explanation string) (*model.Snippet, error) {
	return s.update(id, func(sn *model.Snippet) { sn.Explanation = explanation })
}

// update mutates the stored snippet in place and bumps UpdatedAt.
func (s *Store) update(id string, mutate func(*model.Snippet)) (*model.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("snippet", id)
	}
	mutate(&s.snippets[i])
	s.snippets[i].Touch(s.now())
	updated := s.snippets[i].Clone()
	return &updated, nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.snippets {
		if s.snippets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddCollection(_ context.Context, c model.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.collections {
		if existing.ID == c.ID {
			return apperror.Conflict(fmt.Sprintf("collection %s already exists", c.ID))
		}
	}
	s.collections = append(s.collections, c)
	return nil
}

func (s *Store) GetCollection(_ context.Context, id string) (*model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, apperror.NotFound("collection", id)
}

func (s *Store) Collections(_ context.Context) ([]model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Collection{}, s.collections...), nil
}
