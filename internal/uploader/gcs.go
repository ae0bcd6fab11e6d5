package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/example/mediauploader/internal/models"
)

// GCSUploader forwards files to a Google Cloud Storage bucket. Stored objects are made
// publicly readable on a best-effort basis so the outcome can carry a shareable link; a
// failure of that ACL call never downgrades the stored object's outcome.
type GCSUploader struct {
	credentialsFile string
	bucket          string
	prefix          string

	initOnce sync.Once
	client   *storage.Client
	initErr  error
}

// NewGCSUploader creates a new Google Cloud Storage upload provider
func NewGCSUploader() *GCSUploader {
	return &GCSUploader{}
}

// Initialize stores the GCS configuration
func (g *GCSUploader) Initialize(config map[string]string) error {
	g.credentialsFile = config["credentialsFile"]
	g.bucket = config["bucket"]
	g.prefix = config["prefix"]
	return nil
}

// storageClient returns the shared storage client, constructing it on first use.
// A construction failure is cached and reported by every subsequent call.
func (g *GCSUploader) storageClient() (*storage.Client, error) {
	g.initOnce.Do(func() {
		if g.client != nil {
			// Pre-seeded client, nothing to construct
			return
		}
		var opts []option.ClientOption
		if g.credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
		}
		g.client, g.initErr = storage.NewClient(context.Background(), opts...)
	})
	return g.client, g.initErr
}

// Upload writes the file as a new object in the configured bucket
func (g *GCSUploader) Upload(ctx context.Context, file File) models.Outcome {
	client, err := g.storageClient()
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Google Cloud Storage client unavailable: %v", err), "")
	}

	if g.bucket == "" {
		return models.Failed(file.Name, "no Google Cloud Storage bucket configured", "")
	}

	objectName := fmt.Sprintf("%s%d-%s", g.prefix, time.Now().UnixNano(), file.Name)
	obj := client.Bucket(g.bucket).Object(objectName)

	writer := obj.NewWriter(ctx)
	writer.ContentType = file.ContentType
	writer.Metadata = map[string]string{
		"filename":   file.Name,
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := io.Copy(writer, bytes.NewReader(file.Data)); err != nil {
		writer.Close()
		return models.Failed(file.Name, fmt.Sprintf("failed to write object to GCS: %v", err), providerDetails(err))
	}
	if err := writer.Close(); err != nil {
		return models.Failed(file.Name, fmt.Sprintf("failed to finalize GCS upload: %v", err), providerDetails(err))
	}

	outcome := models.Outcome{
		Filename: file.Name,
		Status:   models.StatusSuccess,
		RemoteID: objectName,
		Size:     int64(len(file.Data)),
	}
	if attrs := writer.Attrs(); attrs != nil && !attrs.Created.IsZero() {
		createdAt := attrs.Created
		outcome.CreatedAt = &createdAt
	}

	// The object is already stored; making it link-readable is best-effort.
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		log.Printf("Could not make GCS object %s publicly readable: %v", objectName, err)
	} else {
		outcome.Link = fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName)
	}

	return outcome
}
