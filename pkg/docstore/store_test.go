package docstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestDirStoreLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "networking"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "networking", "dns.md"), []byte("# DNS\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewDirStore(dir)
	if err != nil {
		t.Fatalf("NewDirStore failed: %v", err)
	}

	text, err := store.Load(context.Background(), "networking/dns.md")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != "# DNS\n" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestDirStoreNotFound(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Load(context.Background(), "missing.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDirStoreRejectsEscape(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"../secret.md", "/etc/passwd", "a/../../b.md"} {
		if _, err := store.Load(context.Background(), name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%q): expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestFSStoreLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"intro.md": &fstest.MapFile{Data: []byte("# Intro\n")},
	}
	store := NewFSStore(fsys)

	text, err := store.Load(context.Background(), "intro.md")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != "# Intro\n" {
		t.Errorf("unexpected text %q", text)
	}

	if _, err := store.Load(context.Background(), "nope.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPStoreLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/docs/networking/dns.md":
			_, _ = w.Write([]byte("# DNS over HTTP\n"))
		case "/docs/broken.md":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL + "/docs/")

	text, err := store.Load(context.Background(), "networking/dns.md")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != "# DNS over HTTP\n" {
		t.Errorf("unexpected text %q", text)
	}

	if _, err := store.Load(context.Background(), "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for 404, got %v", err)
	}

	if _, err := store.Load(context.Background(), "broken.md"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected non-NotFound error for 500, got %v", err)
	}
}

func TestScanAllCollectsPartialFailures(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": &fstest.MapFile{Data: []byte("alpha")},
		"c.md": &fstest.MapFile{Data: []byte("gamma")},
	}
	store := NewFSStore(fsys)

	results, err := ScanAll(context.Background(), store, []string{"a.md", "b.md", "c.md"})
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Text != "alpha" {
		t.Errorf("unexpected result for a.md: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for b.md, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Text != "gamma" {
		t.Errorf("unexpected result for c.md: %+v", results[2])
	}

	texts := Texts(results)
	if len(texts) != 2 || texts["a.md"] != "alpha" || texts["c.md"] != "gamma" {
		t.Errorf("unexpected Texts map: %v", texts)
	}
}
