// Package docload reads supporting documents from a directory into a single
// text block consumable by the research stage. Only plain-text formats are
// supported; unreadable files are skipped with a note rather than failing
// the whole load.
package docload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var supportedExts = map[string]bool{
	".txt": true,
	".md":  true,
}

// LoadDir concatenates every supported file in dir, each prefixed with a
// file header so the model can attribute content. Returns an empty string
// for an empty or missing directory path.
func LoadDir(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read document dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(&sb, "--- Error loading %s: %v ---\n", name, err)
			continue
		}
		if len(data) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "--- File: %s ---\n%s\n", name, data)
	}
	return sb.String(), nil
}
