package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/example/mediauploader/internal/models"
)

const (
	defaultPhotosEndpoint = "https://photoslibrary.googleapis.com"
	photosScope           = "https://www.googleapis.com/auth/photoslibrary.appendonly"
)

// PhotosUploader forwards files to a Google Photos album using the two-phase media
// protocol: the raw bytes are uploaded first to obtain an upload token, then a media
// item is created in the album from that token.
type PhotosUploader struct {
	credentialsFile string
	albumID         string
	endpoint        string

	initOnce sync.Once
	client   *http.Client
	initErr  error
}

// NewPhotosUploader creates a new Google Photos upload provider
func NewPhotosUploader() *PhotosUploader {
	return &PhotosUploader{}
}

// Initialize stores the Photos configuration
func (p *PhotosUploader) Initialize(config map[string]string) error {
	p.credentialsFile = config["credentialsFile"]
	p.albumID = config["albumId"]
	p.endpoint = config["endpoint"]
	if p.endpoint == "" {
		p.endpoint = defaultPhotosEndpoint
	}
	return nil
}

// httpClient returns the shared authorized HTTP client, constructing it on first use.
// A construction failure is cached and reported by every subsequent call.
func (p *PhotosUploader) httpClient() (*http.Client, error) {
	p.initOnce.Do(func() {
		if p.client != nil {
			// Pre-seeded client, nothing to construct
			return
		}
		if p.credentialsFile == "" {
			p.initErr = errors.New("no service account credentials file configured")
			return
		}
		key, err := os.ReadFile(p.credentialsFile)
		if err != nil {
			p.initErr = fmt.Errorf("failed to read service account key: %w", err)
			return
		}
		cfg, err := google.JWTConfigFromJSON(key, photosScope)
		if err != nil {
			p.initErr = fmt.Errorf("failed to parse service account key: %w", err)
			return
		}
		p.client = cfg.Client(context.Background())
	})
	return p.client, p.initErr
}

// Upload runs both protocol phases for one file
func (p *PhotosUploader) Upload(ctx context.Context, file File) models.Outcome {
	client, err := p.httpClient()
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Google Photos client unavailable: %v", err), "")
	}

	if p.albumID == "" {
		return models.Failed(file.Name, "no Google Photos album configured", "")
	}

	token, err := p.uploadBytes(ctx, client, file)
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Google Photos byte upload failed: %v", err), "")
	}

	item, details, err := p.createMediaItem(ctx, client, file, token)
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Google Photos media item creation failed: %v", err), details)
	}

	outcome := models.Outcome{
		Filename: file.Name,
		Status:   models.StatusSuccess,
		RemoteID: item.ID,
		Link:     item.ProductURL,
		Size:     int64(len(file.Data)),
	}
	if createdAt, err := time.Parse(time.RFC3339, item.MediaMetadata.CreationTime); err == nil {
		outcome.CreatedAt = &createdAt
	}
	return outcome
}

// uploadBytes performs phase one and returns the opaque upload token
func (p *PhotosUploader) uploadBytes(ctx context.Context, client *http.Client, file File) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/uploads", bytes.NewReader(file.Data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Goog-Upload-Content-Type", file.ContentType)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", errors.New("upload endpoint returned an empty token")
	}
	return token, nil
}

type newMediaItem struct {
	Description     string          `json:"description,omitempty"`
	SimpleMediaItem simpleMediaItem `json:"simpleMediaItem"`
}

type simpleMediaItem struct {
	FileName    string `json:"fileName"`
	UploadToken string `json:"uploadToken"`
}

type batchCreateRequest struct {
	AlbumID       string         `json:"albumId,omitempty"`
	NewMediaItems []newMediaItem `json:"newMediaItems"`
}

type itemStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type photosMediaItem struct {
	ID            string `json:"id"`
	ProductURL    string `json:"productUrl"`
	MediaMetadata struct {
		CreationTime string `json:"creationTime"`
	} `json:"mediaMetadata"`
}

type batchCreateResponse struct {
	NewMediaItemResults []struct {
		UploadToken string           `json:"uploadToken"`
		Status      itemStatus       `json:"status"`
		MediaItem   *photosMediaItem `json:"mediaItem"`
	} `json:"newMediaItemResults"`
}

// createMediaItem performs phase two. A transport error, a non-2xx response and a
// per-item status other than Success all take the same failure path; the returned
// details string carries the raw provider payload when one is available.
func (p *PhotosUploader) createMediaItem(ctx context.Context, client *http.Client, file File, token string) (*photosMediaItem, string, error) {
	reqBody, err := json.Marshal(batchCreateRequest{
		AlbumID: p.albumID,
		NewMediaItems: []newMediaItem{{
			Description: "Uploaded via media upload gateway",
			SimpleMediaItem: simpleMediaItem{
				FileName:    file.Name,
				UploadToken: token,
			},
		}},
	})
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/mediaItems:batchCreate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read batch create response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, string(body), fmt.Errorf("batch create endpoint returned %s", resp.Status)
	}

	var parsed batchCreateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, string(body), fmt.Errorf("malformed batch create response: %w", err)
	}
	if len(parsed.NewMediaItemResults) == 0 {
		return nil, string(body), errors.New("batch create response contained no item results")
	}

	result := parsed.NewMediaItemResults[0]
	if result.Status.Message != "Success" && result.Status.Message != "OK" {
		rawStatus, _ := json.Marshal(result.Status)
		return nil, string(rawStatus), fmt.Errorf("media item status %q", result.Status.Message)
	}
	if result.MediaItem == nil {
		return nil, string(body), errors.New("batch create result carried no media item")
	}

	return result.MediaItem, "", nil
}
