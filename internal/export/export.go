// Package export persists generated summaries as markdown files so a
// result can outlive the terminal session.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is everything worth keeping from one generation.
type Record struct {
	FileName    string
	DocumentID  string
	Length      string
	Content     string
	Keywords    []string
	GeneratedAt time.Time
}

// Write renders the record to <dir>/<base>-summary-<timestamp>.md and
// returns the written path. The directory is created if needed.
func Write(dir string, rec Record) (string, error) {
	if strings.TrimSpace(rec.Content) == "" {
		return "", errors.New("nothing to export: summary content is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	when := rec.GeneratedAt
	if when.IsZero() {
		when = time.Now()
	}
	name := fmt.Sprintf("%s-summary-%s.md", baseName(rec.FileName), when.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "# Summary of %s\n\n", rec.FileName)
	fmt.Fprintf(&b, "- Document: %s\n", rec.DocumentID)
	fmt.Fprintf(&b, "- Length: %s\n", rec.Length)
	fmt.Fprintf(&b, "- Generated: %s\n\n", when.Format(time.RFC3339))
	b.WriteString(rec.Content)
	b.WriteString("\n")
	if len(rec.Keywords) > 0 {
		b.WriteString("\n## Keywords\n\n")
		for _, kw := range rec.Keywords {
			fmt.Fprintf(&b, "- %s\n", kw)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func baseName(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "document"
	}
	return base
}
