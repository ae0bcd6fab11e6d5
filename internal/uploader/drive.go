package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/example/mediauploader/internal/models"
)

// DriveUploader forwards files to a Google Drive folder using service-account
// credentials. After a file is stored it is made link-shareable on a best-effort
// basis; a failure of that second call never downgrades the stored file's outcome.
type DriveUploader struct {
	credentialsFile string
	folderID        string

	initOnce sync.Once
	svc      *drive.Service
	initErr  error
}

// NewDriveUploader creates a new Google Drive upload provider
func NewDriveUploader() *DriveUploader {
	return &DriveUploader{}
}

// Initialize stores the Drive configuration
func (d *DriveUploader) Initialize(config map[string]string) error {
	d.credentialsFile = config["credentialsFile"]
	d.folderID = config["folderId"]
	return nil
}

// service returns the shared authorized Drive client, constructing it on first use.
// A construction failure is cached and reported by every subsequent call.
func (d *DriveUploader) service() (*drive.Service, error) {
	d.initOnce.Do(func() {
		if d.svc != nil {
			// Pre-seeded service, nothing to construct
			return
		}
		if d.credentialsFile == "" {
			d.initErr = errors.New("no service account credentials file configured")
			return
		}
		d.svc, d.initErr = drive.NewService(context.Background(),
			option.WithCredentialsFile(d.credentialsFile),
			option.WithScopes(drive.DriveFileScope))
	})
	return d.svc, d.initErr
}

// Upload creates the file in the configured Drive folder
func (d *DriveUploader) Upload(ctx context.Context, file File) models.Outcome {
	svc, err := d.service()
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Google Drive client unavailable: %v", err), "")
	}

	if d.folderID == "" {
		return models.Failed(file.Name, "no Google Drive folder configured", "")
	}

	meta := &drive.File{
		Name:        file.Name,
		Parents:     []string{d.folderID},
		Description: "Uploaded via media upload gateway",
	}

	created, err := svc.Files.Create(meta).
		Media(bytes.NewReader(file.Data), googleapi.ContentType(file.ContentType)).
		Fields("id, webViewLink, size, createdTime").
		Context(ctx).
		Do()
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Google Drive upload failed: %v", err), providerDetails(err))
	}

	// The file is already stored; sharing is best-effort.
	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := svc.Permissions.Create(created.Id, perm).Context(ctx).Do(); err != nil {
		log.Printf("Could not make Drive file %s link-shareable: %v", created.Id, err)
	}

	outcome := models.Outcome{
		Filename: file.Name,
		Status:   models.StatusSuccess,
		RemoteID: created.Id,
		Link:     created.WebViewLink,
		Size:     created.Size,
	}
	if createdAt, err := time.Parse(time.RFC3339, created.CreatedTime); err == nil {
		outcome.CreatedAt = &createdAt
	}
	return outcome
}

// providerDetails extracts the raw error body when the error came from the Google API
// layer
func providerDetails(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}
