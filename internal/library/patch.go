package library

import (
	"encoding/json"
	"sort"
	"strings"
)

// Patch is a validated partial update keyed by column name. Values are
// ready to bind as query arguments.
type Patch map[string]any

// patchable lists the columns a client may change.
var patchable = map[string]func(json.RawMessage) (any, error){
	"title":       decodeTitle,
	"author":      decodeText("author"),
	"status":      decodeStatus,
	"rating":      decodeRating,
	"started_at":  decodeDate("started_at"),
	"finished_at": decodeDate("finished_at"),
	"comment":     decodeText("comment"),
	"category":    decodeText("category"),
	"tags":        decodeTags,
	"cover_url":   decodeText("cover_url"),
}

// ParsePatch keeps the updatable fields of raw and validates them. Unknown
// fields, including id and user_id, are ignored. ErrNothingToUpdate is
// returned when no updatable field is left.
func ParsePatch(raw map[string]json.RawMessage) (Patch, error) {
	p := make(Patch)
	for field, value := range raw {
		decode, ok := patchable[field]
		if !ok {
			continue
		}
		v, err := decode(value)
		if err != nil {
			return nil, err
		}
		p[field] = v
	}
	if len(p) == 0 {
		return nil, ErrNothingToUpdate
	}
	return p, nil
}

// Columns returns the patched columns in a stable order.
func (p Patch) Columns() []string {
	cols := make([]string, 0, len(p))
	for c := range p {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func decodeTitle(raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ValidationError{Field: "title", Message: "must be a string"}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	return s, nil
}

func decodeText(field string) func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &ValidationError{Field: field, Message: "must be a string"}
		}
		if s == nil {
			return "", nil
		}
		return strings.TrimSpace(*s), nil
	}
}

func decodeStatus(raw json.RawMessage) (any, error) {
	var s Status
	if err := json.Unmarshal(raw, &s); err != nil || !s.Valid() {
		return nil, &ValidationError{Field: "status", Message: "must be one of want, reading, read, dropped"}
	}
	return string(s), nil
}

func decodeRating(raw json.RawMessage) (any, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, &ValidationError{Field: "rating", Message: "must be an integer"}
	}
	if err := validateRating(n); err != nil {
		return nil, err
	}
	return n, nil
}

// decodeDate yields nil for null or "" so the column is cleared.
func decodeDate(field string) func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
		}
		if s == nil || *s == "" {
			return (*string)(nil), nil
		}
		if err := validateDate(field, s); err != nil {
			return nil, err
		}
		return s, nil
	}
}

func decodeTags(raw json.RawMessage) (any, error) {
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, &ValidationError{Field: "tags", Message: "must be an array of strings"}
	}
	return cleanTags(tags), nil
}
