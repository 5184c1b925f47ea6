package wally

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.ConfigDir = t.TempDir()
	return c
}

func TestSignUpSavesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["name"] != "rosie" {
			t.Errorf("name = %q", req["name"])
		}
		json.NewEncoder(w).Encode(SessionResponse{Token: "tok-1", ID: "user-1", Name: "rosie"})
	})

	c := newTestClient(t, mux)
	resp, err := c.SignUp("rosie", "hunter22", "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.Token != "tok-1" {
		t.Fatalf("token = %q", resp.Token)
	}

	// A fresh client pointed at the same config dir picks the session up.
	fresh := &Client{BaseURL: c.BaseURL, ConfigDir: c.ConfigDir, HTTPClient: c.HTTPClient}
	if err := fresh.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if fresh.Token != "tok-1" || fresh.Name != "rosie" {
		t.Fatalf("loaded session = %+v", fresh)
	}
}

func TestPostMessageRequiresSession(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	if _, err := c.PostMessage("hello"); err == nil {
		t.Fatal("expected error when not signed in")
	}
}

func TestSendImageResolvesPlaceholder(t *testing.T) {
	var patched struct {
		ImageURL   string `json:"imageUrl"`
		StorageURI string `json:"storageUri"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/messages/image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PostMessageResponse{ID: "msg-1", Timestamp: 100})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		json.NewEncoder(w).Encode(UploadResponse{
			StorageURI: "wally://abc.png",
			URL:        "http://files.example/abc.png",
		})
	})
	mux.HandleFunc("/messages/msg-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&patched)
		json.NewEncoder(w).Encode(Message{ID: "msg-1", ImageURL: patched.ImageURL})
	})

	c := newTestClient(t, mux)
	c.Token = "tok-1"

	id, err := c.SendImage(context.Background(), strings.NewReader("png-bytes"), "abc.png", "image/png")
	if err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	if id != "msg-1" {
		t.Fatalf("id = %q", id)
	}
	if patched.ImageURL != "http://files.example/abc.png" {
		t.Fatalf("patched imageUrl = %q", patched.ImageURL)
	}
	if patched.StorageURI != "wally://abc.png" {
		t.Fatalf("patched storageUri = %q", patched.StorageURI)
	}
}

func TestSendImageLeavesPlaceholderOnUploadFailure(t *testing.T) {
	patchCalled := false

	mux := http.NewServeMux()
	mux.HandleFunc("/messages/image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PostMessageResponse{ID: "msg-1", Timestamp: 100})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		json.NewEncoder(w).Encode(map[string]string{"error": "file too large"})
	})
	mux.HandleFunc("/messages/msg-1", func(w http.ResponseWriter, r *http.Request) {
		patchCalled = true
	})

	c := newTestClient(t, mux)
	c.Token = "tok-1"

	id, err := c.SendImage(context.Background(), strings.NewReader("big"), "big.png", "image/png")
	if err == nil {
		t.Fatal("expected upload error")
	}
	if id != "msg-1" {
		t.Fatalf("id = %q, want the unresolved placeholder id", id)
	}
	if patchCalled {
		t.Fatal("placeholder must stay unresolved after a failed upload")
	}
}

func TestErrorResponsesSurfaceServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown name or wrong password"})
	})

	c := newTestClient(t, mux)
	_, err := c.SignIn("rosie", "wrong")
	if err == nil || !strings.Contains(err.Error(), "unknown name or wrong password") {
		t.Fatalf("err = %v", err)
	}
}
