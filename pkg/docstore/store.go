// Package docstore resolves document identifiers to raw Markdown text.
//
// The UI treats every store the same way: Load returns the document body or
// an error, and the caller translates failures into an inline message. Stores
// exist for a local directory, an embedded io/fs tree, and a plain HTTP base
// URL fetching raw text.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound indicates the store cannot resolve the given identifier.
var ErrNotFound = errors.New("document not found")

// Store resolves a path-like document identifier to its raw UTF-8 text.
type Store interface {
	Load(ctx context.Context, name string) (string, error)
}

// DirStore serves documents from a directory on disk.
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir.
func NewDirStore(dir string) (*DirStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("docs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs directory: %s is not a directory", abs)
	}
	return &DirStore{root: abs}, nil
}

// Root returns the absolute docs directory.
func (s *DirStore) Root() string { return s.root }

// Resolve returns the on-disk path a document identifier maps to, or an
// error if the identifier escapes the store root.
func (s *DirStore) Resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return filepath.Join(s.root, clean), nil
}

// Load reads the document from disk.
func (s *DirStore) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// FSStore serves documents from an io/fs tree (typically the embedded
// default article set).
type FSStore struct {
	fsys fs.FS
}

// NewFSStore creates a store over the given filesystem.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// Load reads the document from the filesystem.
func (s *FSStore) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := fs.ReadFile(s.fsys, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// HTTPStore fetches raw document text from a base URL. A non-2xx response is
// a retrieval error; 404 maps to ErrNotFound.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a store fetching <base>/<name>.
func NewHTTPStore(base string) *HTTPStore {
	return &HTTPStore{
		base: strings.TrimRight(base, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Load fetches the document over HTTP.
func (s *HTTPStore) Load(ctx context.Context, name string) (string, error) {
	u := s.base + "/" + strings.TrimLeft(url.PathEscape(name), "/")
	// PathEscape encodes the slashes inside name; undo that so nested
	// identifiers like networking/dns.md keep their structure.
	u = strings.ReplaceAll(u, "%2F", "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %s: unexpected status %s", name, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}
