// Package uploader provides implementations for forwarding uploaded files to remote
// storage and photo-album providers
package uploader

import (
	"context"

	"github.com/example/mediauploader/internal/models"
)

// File is one uploaded file part, fully buffered in memory for the duration of the
// request
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader forwards a single file to a remote store.
//
// Upload never returns an error: every failure mode (missing configuration, client
// initialization failure, transport error, provider rejection, malformed provider
// response) is folded into a failure Outcome so that one bad file never affects the
// rest of a batch.
type Uploader interface {
	// Initialize stores the provider configuration. Credential acquisition is deferred
	// to the first Upload call so that a misconfigured provider degrades to per-file
	// failures instead of refusing to start.
	Initialize(config map[string]string) error

	// Upload persists one file in the target store and returns its outcome
	Upload(ctx context.Context, file File) models.Outcome
}
