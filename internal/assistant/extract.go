package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sakif/snippet-lab/internal/model"
)

var (
	errNoObject     = errors.New("response contains no JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
	errMissingTitle = errors.New("response is missing a title")
	errMissingCode  = errors.New("response is missing code")
)

// ExtractObject returns the text between the first '{' and the last '}'
// of a free-text model response, braces included.
//
// This only locates the payload. It is fooled by braces in prose outside
// the object; ParseDraft's strict decode turns that into an error instead of
// a silently wrong draft.
func ExtractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errNoObject
	}
	return text[start : end+1], nil
}

// draftPayload is the response schema. Pointers distinguish absent from
// empty.
type draftPayload struct {
	Title       *string  `json:"title"`
	Language    *string  `json:"language"`
	Code        *string  `json:"code"`
	Tags        []string `json:"tags"`
	Description *string  `json:"description"`
}

// ParseDraft decodes a generation response into a draft.
//
// Decoding fails closed: unknown keys, wrong types, trailing data after the
// object, and a missing or blank title or code are all errors. Optional
// fields are default-filled: tags to an empty list, description and language
// to the empty string. The language is upper-cased.
func ParseDraft(text string) (model.Draft, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return model.Draft{}, err
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var p draftPayload
	if err := dec.Decode(&p); err != nil {
		return model.Draft{}, fmt.Errorf("decoding draft: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Draft{}, errTrailingData
	}

	d := model.Draft{
		Title:       strings.TrimSpace(deref(p.Title)),
		Language:    model.NormalizeLanguage(deref(p.Language)),
		Code:        deref(p.Code),
		Description: deref(p.Description),
		Tags:        p.Tags,
	}
	if d.Title == "" {
		return model.Draft{}, errMissingTitle
	}
	if strings.TrimSpace(d.Code) == "" {
		return model.Draft{}, errMissingCode
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
