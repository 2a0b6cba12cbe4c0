// Package storage relays uploaded files to an external file host that
// serves them back over public links.
package storage

import (
	"context"
)

// UploadOptions provides options for uploading a file
type UploadOptions struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// UploadedFile describes what the host kept for an upload. Image hosts keep
// several renditions of one upload; FileIDs lists them in the host's order.
type UploadedFile struct {
	FileIDs []string `json:"file_ids"`
}

// PrimaryID returns the ID of the first rendition
func (f *UploadedFile) PrimaryID() string {
	if f == nil || len(f.FileIDs) == 0 {
		return ""
	}
	return f.FileIDs[0]
}

// FileHost provides an abstraction over hosts that accept uploads and hand
// out download links. Implementations attempt every call exactly once.
type FileHost interface {
	// Upload sends data to the host
	Upload(ctx context.Context, data []byte, opts *UploadOptions) (*UploadedFile, error)

	// ResolveURL returns a download link for a stored file
	ResolveURL(ctx context.Context, fileID string) (string, error)

	// Close cleans up any resources used by the host implementation
	Close() error
}

// HostConfig represents configuration for file host providers
type HostConfig struct {
	Type     string `json:"type"` // "telegram" or "mock"
	APIURL   string `json:"api_url"`
	BotToken string `json:"-"`
	ChatID   string `json:"chat_id"`
}
