package extract

import (
	"mime"
	"path/filepath"
	"strings"
)

// ContentTypeFor guesses a document's MIME type from its file name.
func ContentTypeFor(name string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
