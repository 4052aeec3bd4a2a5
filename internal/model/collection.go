package model

// Collection is a named grouping label for snippets.
// Collections are seeded at startup and have no mutation path.
type Collection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Draft is an unsaved snippet under construction in an editing session.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Code        string   `json:"code"`
	Tags        []string `json:"tags"`
}

// Clone returns a copy of d that shares no slices with it.
func (d Draft) Clone() Draft {
	if d.Tags != nil {
		d.Tags = append([]string(nil), d.Tags...)
	}
	return d
}

// Stats summarises the store contents for the dashboard.
type Stats struct {
	Total       int            `json:"total"`
	Views       int            `json:"views"`
	Languages   int            `json:"languages"`
	ByLanguage  map[string]int `json:"byLanguage"`
	TopLanguage string         `json:"topLanguage,omitempty"`
}
