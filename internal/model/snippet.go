// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLanguage is stored when a snippet is submitted without a language.
const DefaultLanguage = "JAVASCRIPT"

// Snippet represents a saved code snippet.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON.
//
// ID is assigned once by the store and never changes. UpdatedAt is never
// earlier than CreatedAt.
type Snippet struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Code         string    `json:"code"`
	Language     string    `json:"language"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	IsPinned     bool      `json:"isPinned"`
	IsFavorite   bool      `json:"isFavorite"`
	Views        int       `json:"views"`
	Explanation  string    `json:"explanation,omitempty"`
	CollectionID string    `json:"collectionId,omitempty"`
}

// Clone returns a copy of s that shares no slices with it.
// Stores hand out clones so callers can't mutate stored state.
func (s Snippet) Clone() Snippet {
	if s.Tags != nil {
		s.Tags = append([]string(nil), s.Tags...)
	}
	return s
}

// NormalizeLanguage upper-cases and trims a language tag.
func NormalizeLanguage(lang string) string {
	return strings.ToUpper(strings.TrimSpace(lang))
}

// FilterCategory restricts which snippets are displayable.
type FilterCategory string

const (
	FilterAll       FilterCategory = "all"
	FilterPinned    FilterCategory = "pinned"
	FilterFavorites FilterCategory = "favorites"
)

// ParseFilterCategory maps a query-string value onto a FilterCategory.
// The empty string means FilterAll.
func ParseFilterCategory(s string) (FilterCategory, error) {
	switch FilterCategory(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPinned:
		return FilterPinned, nil
	case FilterFavorites:
		return FilterFavorites, nil
	}
	return "", fmt.Errorf("unknown filter category %q", s)
}

// ViewMode is the display arrangement chosen by the client. It never
// affects query results.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode returns ViewGrid for anything other than "list".
func ParseViewMode(s string) ViewMode {
	if ViewMode(strings.ToLower(strings.TrimSpace(s))) == ViewList {
		return ViewList
	}
	return ViewGrid
}

// Touch moves UpdatedAt to now without ever letting it go backwards or
// fall before CreatedAt.
func (s *Snippet) Touch(now time.Time) {
	if now.After(s.UpdatedAt) {
		s.UpdatedAt = now
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		s.UpdatedAt = s.CreatedAt
	}
}
