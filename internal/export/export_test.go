package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteRendersMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := Write(dir, Record{
		FileName:    "notes.txt",
		DocumentID:  "d1",
		Length:      "short",
		Content:     "The gist of the document.",
		Keywords:    []string{"ai", "summary"},
		GeneratedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("written outside target dir: %s", path)
	}
	if want := "notes-summary-20260314-092653.md"; filepath.Base(path) != want {
		t.Fatalf("file name = %s, want %s", filepath.Base(path), want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(raw)
	for _, fragment := range []string{
		"# Summary of notes.txt",
		"- Document: d1",
		"- Length: short",
		"The gist of the document.",
		"## Keywords",
		"- ai",
		"- summary",
	} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("exported markdown missing %q:\n%s", fragment, content)
		}
	}
}

func TestWriteWithoutKeywordsOmitsSection(t *testing.T) {
	t.Parallel()

	path, err := Write(t.TempDir(), Record{
		FileName: "a.md",
		Content:  "body",
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "## Keywords") {
		t.Fatal("keywords section rendered for empty keyword list")
	}
}

func TestWriteRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	if _, err := Write(t.TempDir(), Record{FileName: "a.txt"}); err == nil {
		t.Fatal("expected error for empty content")
	}
}
