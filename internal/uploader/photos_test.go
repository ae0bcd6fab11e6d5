package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type photosBackend struct {
	uploadStatus  int
	statusMessage string

	uploadCalls int32
	createCalls int32
}

func (b *photosBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/uploads", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.uploadCalls, 1)
		if b.uploadStatus != 0 && b.uploadStatus != http.StatusOK {
			http.Error(w, "upload rejected", b.uploadStatus)
			return
		}
		fmt.Fprint(w, "upload-token-1")
	})

	mux.HandleFunc("/v1/mediaItems:batchCreate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.createCalls, 1)

		var req struct {
			AlbumID       string `json:"albumId"`
			NewMediaItems []struct {
				SimpleMediaItem struct {
					FileName    string `json:"fileName"`
					UploadToken string `json:"uploadToken"`
				} `json:"simpleMediaItem"`
			} `json:"newMediaItems"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.AlbumID != "album-1" || len(req.NewMediaItems) != 1 ||
			req.NewMediaItems[0].SimpleMediaItem.UploadToken != "upload-token-1" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}

		message := b.statusMessage
		if message == "" {
			message = "Success"
		}

		resp := map[string]interface{}{
			"newMediaItemResults": []map[string]interface{}{{
				"uploadToken": "upload-token-1",
				"status":      map[string]interface{}{"code": 0, "message": message},
				"mediaItem": map[string]interface{}{
					"id":         "media-1",
					"productUrl": "https://photos.example.com/media-1",
					"mediaMetadata": map[string]interface{}{
						"creationTime": "2024-06-01T12:00:00Z",
					},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func newTestPhotosUploader(t *testing.T, endpoint, albumID string) *PhotosUploader {
	t.Helper()

	p := NewPhotosUploader()
	if err := p.Initialize(map[string]string{
		"albumId":  albumID,
		"endpoint": endpoint,
	}); err != nil {
		t.Fatalf("Failed to initialize photos uploader: %v", err)
	}
	p.client = http.DefaultClient
	return p
}

func TestPhotosUploaderTwoPhaseSuccess(t *testing.T) {
	backend := &photosBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	p := newTestPhotosUploader(t, server.URL, "album-1")
	outcome := p.Upload(context.Background(), File{Name: "sunset.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")})

	if !outcome.OK() {
		t.Fatalf("Expected success, got failure: %s", outcome.Error)
	}
	if outcome.RemoteID != "media-1" {
		t.Errorf("Unexpected remote ID: %s", outcome.RemoteID)
	}
	if outcome.Link != "https://photos.example.com/media-1" {
		t.Errorf("Unexpected link: %s", outcome.Link)
	}
	if outcome.CreatedAt == nil {
		t.Error("Expected createdAt to be populated from the media metadata")
	}
	if backend.uploadCalls != 1 || backend.createCalls != 1 {
		t.Errorf("Expected one call per phase, got %d/%d", backend.uploadCalls, backend.createCalls)
	}
}

func TestPhotosUploaderNonSuccessItemStatus(t *testing.T) {
	backend := &photosBackend{statusMessage: "Internal error"}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	p := newTestPhotosUploader(t, server.URL, "album-1")
	outcome := p.Upload(context.Background(), File{Name: "sunset.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")})

	if outcome.OK() {
		t.Fatal("Expected a failure outcome for a non-Success item status")
	}
	if !strings.Contains(outcome.Error, "media item status") {
		t.Errorf("Unexpected failure message: %s", outcome.Error)
	}
	if !strings.Contains(outcome.ProviderDetails, "Internal error") {
		t.Errorf("Expected provider details to carry the raw status, got: %s", outcome.ProviderDetails)
	}
}

func TestPhotosUploaderByteUploadFailure(t *testing.T) {
	backend := &photosBackend{uploadStatus: http.StatusServiceUnavailable}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	p := newTestPhotosUploader(t, server.URL, "album-1")
	outcome := p.Upload(context.Background(), File{Name: "sunset.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")})

	if outcome.OK() {
		t.Fatal("Expected a failure outcome when the byte upload is rejected")
	}
	if !strings.Contains(outcome.Error, "byte upload failed") {
		t.Errorf("Unexpected failure message: %s", outcome.Error)
	}
	if backend.createCalls != 0 {
		t.Errorf("Expected no media item creation after a failed byte upload, got %d calls", backend.createCalls)
	}
}

func TestPhotosUploaderMissingAlbum(t *testing.T) {
	backend := &photosBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	p := newTestPhotosUploader(t, server.URL, "")
	outcome := p.Upload(context.Background(), File{Name: "sunset.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")})

	if outcome.OK() {
		t.Fatal("Expected a failure outcome without an album")
	}
	if backend.uploadCalls != 0 || backend.createCalls != 0 {
		t.Errorf("Expected no remote calls without an album, got %d/%d", backend.uploadCalls, backend.createCalls)
	}
}

func TestPhotosUploaderCachesClientInitError(t *testing.T) {
	p := NewPhotosUploader()
	if err := p.Initialize(map[string]string{"albumId": "album-1"}); err != nil {
		t.Fatalf("Failed to initialize photos uploader: %v", err)
	}

	first := p.Upload(context.Background(), File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")})
	second := p.Upload(context.Background(), File{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("y")})

	if first.OK() || second.OK() {
		t.Fatal("Expected failures when no credentials are configured")
	}
	if !strings.Contains(first.Error, "client unavailable") {
		t.Errorf("Unexpected failure message: %s", first.Error)
	}
	if first.Error != second.Error {
		t.Errorf("Expected the cached initialization error on every call, got %q then %q", first.Error, second.Error)
	}
}
