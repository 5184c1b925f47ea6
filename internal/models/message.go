package models

// LoadingImageURL is the sentinel image reference rendered while an image
// message's real URL is still being resolved.
const LoadingImageURL = "https://www.google.com/images/spinners/loading.gif"

// Message represents a chat message stored in Redis.
// Exactly one of Text and ImageURL is set.
type Message struct {
	ID            string `json:"id"` // ULID
	Name          string `json:"name"`
	Text          string `json:"text,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	ProfilePicURL string `json:"profilePicUrl"`
	Timestamp     int64  `json:"timestamp"` // Unix ms, server-assigned
	StorageURI    string `json:"storageUri,omitempty"`
}

// IsImage reports whether the message carries an image payload.
func (m *Message) IsImage() bool {
	return m.ImageURL != ""
}

// IsPlaceholder reports whether the message is an image placeholder whose
// real URL has not been resolved yet.
func (m *Message) IsPlaceholder() bool {
	return m.ImageURL == LoadingImageURL && m.StorageURI == ""
}
