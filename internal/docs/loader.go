// Package docs loads the document set a pipeline run scans. Documents are
// plain UTF-8 text files selected by a glob pattern under a root directory.
package docs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/gloss/internal/glossary"
)

// DefaultGlob selects the files loaded when no pattern is configured.
const DefaultGlob = "**/*.{md,txt}"

// Load reads every file under root matching the doublestar glob pattern and
// returns documents sorted by path. Paths are slash-separated and relative
// to root so occurrence records stay stable across machines.
func Load(root, pattern string) ([]glossary.Document, error) {
	if pattern == "" {
		pattern = DefaultGlob
	}
	fsys := os.DirFS(root)

	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("load documents: bad pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	docs := make([]glossary.Document, 0, len(matches))
	for _, match := range matches {
		info, err := fs.Stat(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("load documents: stat %s: %w", match, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("load documents: read %s: %w", match, err)
		}
		docs = append(docs, glossary.Document{
			Path:    filepath.ToSlash(match),
			Content: normalizeNewlines(string(data)),
		})
	}
	return docs, nil
}

// normalizeNewlines converts CRLF line endings so line numbers and context
// joins behave identically across platforms.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
