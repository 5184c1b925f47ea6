// Package wally provides a client for the wheres-wally chat service,
// including the live message-list reconciler used by watching clients.
package wally

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client is a wheres-wally API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	Token      string
	UserID     string
	Name       string
	HTTPClient *http.Client
}

// Config holds the persisted session.
type Config struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// NewClient creates a new client, loading any saved session from disk.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("WALLY_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".wally")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadConfig()
	return c
}

// LoadConfig loads the saved session from disk.
func (c *Client) LoadConfig() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "session.json"))
	if err != nil {
		return err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return err
	}

	c.Token = config.Token
	c.UserID = config.UserID
	c.Name = config.Name
	return nil
}

// SaveConfig saves the session to disk.
func (c *Client) SaveConfig() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	config := Config{
		Token:  c.Token,
		UserID: c.UserID,
		Name:   c.Name,
	}

	data, _ := json.MarshalIndent(config, "", "  ")
	return os.WriteFile(filepath.Join(c.ConfigDir, "session.json"), data, 0600)
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(method, path string, body []byte, authed bool) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if authed {
		if c.Token == "" {
			return nil, fmt.Errorf("not signed in")
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("wally error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// SessionResponse is the response from signing up or in.
type SessionResponse struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// SignUp registers a new user and saves the session.
func (c *Client) SignUp(name, password, photoURL string) (*SessionResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"name":      name,
		"password":  password,
		"photo_url": photoURL,
	})

	respBody, err := c.doRequest("POST", "/signup", body, false)
	if err != nil {
		return nil, err
	}

	var resp SessionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.Token = resp.Token
	c.UserID = resp.ID
	c.Name = resp.Name
	if err := c.SaveConfig(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignIn signs an existing user in and saves the session.
func (c *Client) SignIn(name, password string) (*SessionResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"name":     name,
		"password": password,
	})

	respBody, err := c.doRequest("POST", "/signin", body, false)
	if err != nil {
		return nil, err
	}

	var resp SessionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.Token = resp.Token
	c.UserID = resp.ID
	c.Name = resp.Name
	if err := c.SaveConfig(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Identity is the current viewer's identity snapshot.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// Me returns the current viewer's display name and photo.
func (c *Client) Me() (*Identity, error) {
	respBody, err := c.doRequest("GET", "/me", nil, true)
	if err != nil {
		return nil, err
	}

	var resp Identity
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostMessageResponse is the response from creating a message.
type PostMessageResponse struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// PostMessage posts a text message.
func (c *Client) PostMessage(text string) (*PostMessageResponse, error) {
	body, _ := json.Marshal(map[string]string{"text": text})

	respBody, err := c.doRequest("POST", "/messages", body, true)
	if err != nil {
		return nil, err
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateImageMessage creates an image placeholder message.
func (c *Client) CreateImageMessage() (*PostMessageResponse, error) {
	respBody, err := c.doRequest("POST", "/messages/image", nil, true)
	if err != nil {
		return nil, err
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PatchMessage resolves an image placeholder in place.
func (c *Client) PatchMessage(id, imageURL, storageURI string) (*Message, error) {
	body, _ := json.Marshal(map[string]string{
		"imageUrl":   imageURL,
		"storageUri": storageURI,
	})

	respBody, err := c.doRequest("PATCH", "/messages/"+id, body, true)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes one of the caller's messages.
func (c *Client) DeleteMessage(id string) error {
	_, err := c.doRequest("DELETE", "/messages/"+id, nil, true)
	return err
}

// MessagesResponse is the response from listing messages.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// Messages retrieves the most recent messages, newest first.
func (c *Client) Messages(limit int) (*MessagesResponse, error) {
	respBody, err := c.doRequest("GET", fmt.Sprintf("/messages?limit=%d", limit), nil, false)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadResponse is the response from uploading an attachment.
type UploadResponse struct {
	StorageURI string `json:"storageUri"`
	URL        string `json:"url"`
}

// Upload sends an image attachment and returns its storage URI and URL.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename, contentType string) (*UploadResponse, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("not signed in")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("wally error %d: %s", resp.StatusCode, errResp.Error)
	}

	var uploadResp UploadResponse
	if err := json.Unmarshal(respBody, &uploadResp); err != nil {
		return nil, err
	}
	return &uploadResp, nil
}

// SendImage runs the placeholder-then-resolve flow: create the placeholder
// message, upload the attachment, then patch the message with the resolved
// URL. If the upload fails the placeholder is left unresolved and the error
// is returned for the caller to log; there is no retry.
func (c *Client) SendImage(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	placeholder, err := c.CreateImageMessage()
	if err != nil {
		return "", fmt.Errorf("create placeholder: %w", err)
	}

	upload, err := c.Upload(ctx, r, filename, contentType)
	if err != nil {
		return placeholder.ID, fmt.Errorf("upload: %w", err)
	}

	if _, err := c.PatchMessage(placeholder.ID, upload.URL, upload.StorageURI); err != nil {
		return placeholder.ID, fmt.Errorf("resolve placeholder: %w", err)
	}

	return placeholder.ID, nil
}

// RegisterPushToken stores a device token for push messaging.
func (c *Client) RegisterPushToken(token string) error {
	body, _ := json.Marshal(map[string]string{"token": token})
	_, err := c.doRequest("POST", "/push/token", body, true)
	return err
}

// CharacterInfo represents a minigame character.
type CharacterInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Found bool   `json:"found"`
}

// CharactersResponse is the response from listing characters.
type CharactersResponse struct {
	Characters []CharacterInfo `json:"characters"`
}

// Characters lists the hidden characters.
func (c *Client) Characters() (*CharactersResponse, error) {
	respBody, err := c.doRequest("GET", "/game/characters", nil, false)
	if err != nil {
		return nil, err
	}

	var resp CharactersResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GuessResponse is the result of a minigame guess.
type GuessResponse struct {
	Hit       bool   `json:"hit"`
	Character string `json:"character,omitempty"`
	Complete  bool   `json:"complete"`
}

// Guess submits a normalized scene coordinate.
func (c *Client) Guess(x, y float64) (*GuessResponse, error) {
	body, _ := json.Marshal(map[string]float64{"x": x, "y": y})

	respBody, err := c.doRequest("POST", "/game/guess", body, true)
	if err != nil {
		return nil, err
	}

	var resp GuessResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchResult represents a search result.
type SearchResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// SearchResponse is the response from searching messages.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

// Search searches for messages.
func (c *Client) Search(query string, limit int) (*SearchResponse, error) {
	path := fmt.Sprintf("/find?q=%s&limit=%d", url.QueryEscape(query), limit)

	respBody, err := c.doRequest("GET", path, nil, false)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatsResponse is the response from the stats endpoint.
type StatsResponse struct {
	TotalUsers      int64  `json:"total_users"`
	TotalMessages   int64  `json:"total_messages"`
	TotalCharacters int64  `json:"total_characters"`
	LastActivity    string `json:"last_activity"`
	RecentMessages  []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Text      string `json:"text"`
		Timestamp int64  `json:"timestamp"`
	} `json:"recent_messages"`
}

// Stats retrieves platform statistics.
func (c *Client) Stats() (*StatsResponse, error) {
	respBody, err := c.doRequest("GET", "/stats", nil, false)
	if err != nil {
		return nil, err
	}

	var resp StatsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil, false)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
