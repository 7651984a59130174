package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"fakturscan/internal/domain"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (domain.ExportFormat, error) {
	f := domain.ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := domain.ExportContentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExport, s)
	}
	return f, nil
}

// Write renders docs in the given format.
func Write(out io.Writer, format domain.ExportFormat, docs []Document) error {
	switch format {
	case domain.ExportFormatCSV:
		return WriteCSV(out, docs)
	case domain.ExportFormatXLSX:
		data, err := WriteXLSX(docs)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case domain.ExportFormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if len(docs) == 1 {
			return enc.Encode(docs[0].Result)
		}
		results := make([]*domain.ParseResult, 0, len(docs))
		for _, d := range docs {
			results = append(results, d.Result)
		}
		return enc.Encode(results)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedExport, format)
	}
}

func joinNotes(notes []string) string {
	return strings.Join(notes, "; ")
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a document name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "faktur"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{format}.
func BuildFilename(name string, format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), format)
}
