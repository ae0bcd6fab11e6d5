package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/mediauploader/internal/models"
)

// LocalUploader stores files on the local filesystem. It is the default provider when
// no cloud credentials are configured; stored files are served back under baseURL.
type LocalUploader struct {
	basePath string
	baseURL  string
}

// NewLocalUploader creates a new local filesystem upload provider
func NewLocalUploader() *LocalUploader {
	return &LocalUploader{}
}

// Initialize sets up the local provider, creating the storage directory if needed
func (l *LocalUploader) Initialize(config map[string]string) error {
	l.basePath = config["basePath"]
	if l.basePath == "" {
		l.basePath = "./uploads"
	}

	l.baseURL = config["baseURL"]
	if l.baseURL == "" {
		l.baseURL = "/files"
	}

	if _, err := os.Stat(l.basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(l.basePath, 0755); err != nil {
			return fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return nil
}

// Upload writes the file under a timestamped name
func (l *LocalUploader) Upload(ctx context.Context, file File) models.Outcome {
	id := fmt.Sprintf("%d-%s", time.Now().UnixNano(), strings.ReplaceAll(file.Name, " ", "_"))

	if err := os.WriteFile(filepath.Join(l.basePath, id), file.Data, 0644); err != nil {
		return models.Failed(file.Name, fmt.Sprintf("failed to store file locally: %v", err), "")
	}

	createdAt := time.Now().UTC()
	return models.Outcome{
		Filename:  file.Name,
		Status:    models.StatusSuccess,
		RemoteID:  id,
		Link:      l.baseURL + "/" + id,
		Size:      int64(len(file.Data)),
		CreatedAt: &createdAt,
	}
}

// BasePath returns the directory files are stored under
func (l *LocalUploader) BasePath() string {
	return l.basePath
}
