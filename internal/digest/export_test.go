package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportToDir(t *testing.T) {
	dir := t.TempDir()
	d := sampleDigest()

	path, err := Export(d, "md", dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".md") {
		t.Errorf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range d.Items {
		if !strings.Contains(string(data), it.Title) {
			t.Errorf("export missing title %q", it.Title)
		}
	}
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	got, err := Export(sampleDigest(), "json", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}
	f, _ := os.Open(path)
	defer f.Close()
	parsed, err := ParseJSON(f)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(parsed.Items) != len(sampleDigest().Items) {
		t.Errorf("round trip lost items")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if _, err := Export(sampleDigest(), "pdf", t.TempDir()); err == nil {
		t.Error("expected error")
	}
}
