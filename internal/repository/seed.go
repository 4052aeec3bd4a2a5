package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/snippet-lab/internal/model"
)

// SeedCollections is the fixed collection set created at startup.
func SeedCollections() []model.Collection {
	return []model.Collection{
		{ID: "1", Name: "Work", Icon: "work", Color: "#3b82f6"},
		{ID: "2", Name: "Studies", Icon: "school", Color: "#10b981"},
	}
}

// SeedSnippets returns the starter snippets, oldest first, with timestamps
// relative to now.
func SeedSnippets(now time.Time) []model.Snippet {
	return []model.Snippet{
		{
			Title:       "Modern Grid Centering",
			Description: "The shortest, most elegant way to center any element.",
			Code: `.container {
  display: grid;
  place-items: center;
  min-height: 100vh;
}`,
			Language:  "CSS",
			Tags:      []string{"layout", "css", "grid"},
			CreatedAt: now.Add(-48 * time.Hour),
			Views:     89,
		},
		{
			Title:       "useDebounce Custom Hook",
			Description: "Essential hook for optimizing live search and avoiding excess API requests.",
			Code: `export function useDebounce<T>(value: T, delay: number): T {
  const [debouncedValue, setDebouncedValue] = useState(value);

  useEffect(() => {
    const handler = setTimeout(() => setDebouncedValue(value), delay);
    return () => clearTimeout(handler);
  }, [value, delay]);

  return debouncedValue;
}`,
			Language:   "TYPESCRIPT",
			Tags:       []string{"react", "hooks", "performance"},
			CreatedAt:  now.Add(-24 * time.Hour),
			IsPinned:   true,
			IsFavorite: true,
			Views:      142,
		},
	}
}

// Seed loads the starter collections and snippets into s.
// Snippets are added oldest first so the newest ends up at the head.
func Seed(ctx context.Context, s Store) error {
	for _, c := range SeedCollections() {
		if err := s.AddCollection(ctx, c); err != nil {
			return fmt.Errorf("seeding collection %s: %w", c.ID, err)
		}
	}
	for _, sn := range SeedSnippets(time.Now()) {
		sn := sn
		if err := s.Add(ctx, &sn); err != nil {
			return fmt.Errorf("seeding snippet %q: %w", sn.Title, err)
		}
	}
	return nil
}
