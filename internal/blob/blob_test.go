package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveAndResolve(t *testing.T) {
	s := newTestStore(t)

	uri, err := s.Save(strings.NewReader("fake image bytes"), "cat.PNG")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, Scheme) {
		t.Fatalf("storage URI %q missing scheme", uri)
	}
	if !strings.HasSuffix(uri, ".png") {
		t.Fatalf("storage URI %q should keep a lowercased extension", uri)
	}

	url, err := s.PublicURL("http://localhost:8080/", uri)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/files/") {
		t.Fatalf("unexpected public URL %q", url)
	}

	// The blob must actually be on disk
	name := strings.TrimPrefix(uri, Scheme)
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fake image bytes" {
		t.Fatalf("stored bytes mismatch: %q", data)
	}
}

func TestPublicURLRejectsForeignURI(t *testing.T) {
	s := newTestStore(t)

	for _, uri := range []string{"", "gs://bucket/obj", Scheme, Scheme + "../escape"} {
		if _, err := s.PublicURL("http://localhost", uri); err == nil {
			t.Fatalf("expected error for %q", uri)
		}
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(); err != nil {
		t.Fatal(err)
	}
}
