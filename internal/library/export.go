package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/storage"
)

// ExportFormat is the file type of a shelf export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", &ValidationError{Field: "format", Message: "must be csv or json"}
	}
}

func (f ExportFormat) ContentType() string {
	if f == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// ExportFields are the columns an export may contain.
var ExportFields = []string{
	"title", "author", "status", "rating",
	"started_at", "finished_at", "added_at",
	"comment", "category", "tags", "id", "cover_url",
}

// DefaultExportFields is used when the client does not choose.
var DefaultExportFields = []string{
	"title", "author", "status", "rating",
	"started_at", "finished_at", "comment",
}

// ParseExportFields turns "a,b,c" into the allowed subset, in the given
// order. An empty param selects DefaultExportFields.
func ParseExportFields(param string) ([]string, error) {
	var requested []string
	for _, f := range strings.Split(param, ",") {
		if f = strings.TrimSpace(f); f != "" {
			requested = append(requested, f)
		}
	}
	if len(requested) == 0 {
		return append([]string(nil), DefaultExportFields...), nil
	}

	allowed := make(map[string]bool, len(ExportFields))
	for _, f := range ExportFields {
		allowed[f] = true
	}
	fields := make([]string, 0, len(requested))
	for _, f := range requested {
		if allowed[f] {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Field: "fields", Message: "no exportable fields requested"}
	}
	return fields, nil
}

// ExportFile is a rendered export ready to download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportFilename is books-<user>-<timestamp>.<format>.
func ExportFilename(userID string, at time.Time, format ExportFormat) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(at.UTC().Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("books-%s-%s.%s", storage.UserFolder(userID), ts, format)
}

// EncodeCSV writes a BOM, a header of field names and one line per book
// with every value quoted.
func EncodeCSV(books []UserBook, fields []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	buf.WriteString(strings.Join(fields, ","))
	for _, b := range books {
		buf.WriteByte('\n')
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(fieldText(b, f), `"`, `""`))
			buf.WriteByte('"')
		}
	}
	return buf.Bytes()
}

// EncodeJSON writes an indented array of objects holding only fields, in
// field order. Missing values are "".
func EncodeJSON(books []UserBook, fields []string) ([]byte, error) {
	if len(books) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, b := range books {
		buf.WriteString("  {\n")
		for j, f := range fields {
			key, err := marshalIndented(f, "")
			if err != nil {
				return nil, err
			}
			val, err := marshalIndented(fieldValue(b, f), "    ")
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", f, err)
			}
			buf.WriteString("    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
			if j < len(fields)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("  }")
		if i < len(books)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalIndented(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// fieldValue is the JSON value of one export column.
func fieldValue(b UserBook, field string) any {
	switch field {
	case "rating":
		return b.Rating
	case "tags":
		if b.Tags == nil {
			return []string{}
		}
		return b.Tags
	default:
		return fieldText(b, field)
	}
}

// fieldText is the CSV text of one export column.
func fieldText(b UserBook, field string) string {
	switch field {
	case "id":
		return b.ID
	case "title":
		return b.Title
	case "author":
		return b.Author
	case "status":
		return string(b.Status)
	case "rating":
		return strconv.Itoa(b.Rating)
	case "started_at":
		return deref(b.StartedAt)
	case "finished_at":
		return deref(b.FinishedAt)
	case "added_at":
		if b.AddedAt.IsZero() {
			return ""
		}
		return b.AddedAt.UTC().Format(time.RFC3339)
	case "comment":
		return b.Comment
	case "category":
		return b.Category
	case "tags":
		return strings.Join(b.Tags, ",")
	case "cover_url":
		return b.CoverURL
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

