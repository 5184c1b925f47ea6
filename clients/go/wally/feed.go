package wally

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// LoadingImageURL marks an image message whose attachment is still uploading.
const LoadingImageURL = "https://www.google.com/images/spinners/loading.gif"

// Message is a chat message as delivered over the wire.
type Message struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Text          string `json:"text,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	StorageURI    string `json:"storageUri,omitempty"`
}

// IsImage reports whether the message carries an image rather than text.
func (m *Message) IsImage() bool {
	return m.ImageURL != ""
}

// IsPlaceholder reports whether the message's attachment is still uploading.
func (m *Message) IsPlaceholder() bool {
	return m.ImageURL == LoadingImageURL
}

// ChangeKind classifies a feed change.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one entry of a feed batch. Message is nil for removals.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	ID      string     `json:"id"`
	Message *Message   `json:"message,omitempty"`
}

// Subscribe opens the live change feed. Batches are delivered on the
// returned channel in arrival order; the channel is closed when the
// context is cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan []Change, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/feed"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	batches := make(chan []Change)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(batches)
		defer conn.Close()
		for {
			var batch []Change
			if err := conn.ReadJSON(&batch); err != nil {
				return
			}
			select {
			case batches <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return batches, nil
}
