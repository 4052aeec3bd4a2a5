// Package repository defines the storage contracts for snippets and collections.
//
// Every implementation is volatile: state lives for the process lifetime only.
// The snippet sequence is ordered newest first; Add always inserts at the head.
package repository

import (
	"context"

	"github.com/sakif/snippet-lab/internal/model"
)

type SnippetRepository interface {
	// Add assigns the ID, fills CreatedAt when zero, sets UpdatedAt, then
	// inserts at the head of the sequence.
	Add(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// List returns every snippet in store order.
	List(ctx context.Context) ([]model.Snippet, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*model.Snippet, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*model.Snippet, error)
	SetExplanation(ctx context.Context, id, explanation string) (*model.Snippet, error)
}

type CollectionRepository interface {
	AddCollection(ctx context.Context, c model.Collection) error
	GetCollection(ctx context.Context, id string) (*model.Collection, error)
	Collections(ctx context.Context) ([]model.Collection, error)
}

// Store is the full Snippet Store: both sequences behind one owner.
type Store interface {
	SnippetRepository
	CollectionRepository
	Close() error
}
