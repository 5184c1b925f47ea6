// Package blob provides a disk-backed attachment store. Uploads are written
// under a flat directory with generated names and are addressed by an opaque
// storage URI; public URLs are resolved against the serving base URL.
package blob

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Scheme prefixes every storage URI issued by the store.
const Scheme = "wally://"

// Store persists uploaded attachments on disk.
type Store struct {
	dir string
}

// NewStore creates the attachment directory if needed and returns a store.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "./data/blobs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the attachment and returns its storage URI. The original
// filename contributes only its extension; the stored name is generated.
func (s *Store) Save(r io.Reader, filename string) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}

	return Scheme + name, nil
}

// PublicURL resolves a storage URI to the URL clients fetch it from.
func (s *Store) PublicURL(baseURL, storageURI string) (string, error) {
	name, ok := strings.CutPrefix(storageURI, Scheme)
	if !ok || name == "" || name != path.Base(name) {
		return "", fmt.Errorf("invalid storage URI %q", storageURI)
	}
	return strings.TrimSuffix(baseURL, "/") + "/files/" + name, nil
}

// Ping verifies the attachment directory is still writable.
func (s *Store) Ping() error {
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}

// Handler serves stored attachments over HTTP.
func (s *Store) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}
