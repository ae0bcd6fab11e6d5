// Package handlers provides HTTP handlers for the media upload gateway
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/mediauploader/internal/config"
	"github.com/example/mediauploader/internal/models"
	"github.com/example/mediauploader/internal/uploader"
)

// UploadFieldName is the multipart form field carrying the file parts
const UploadFieldName = "files"

// parseMemoryLimit bounds how much of the multipart body is held in memory before
// spilling to temp files
const parseMemoryLimit = 32 << 20

// UploadHandler handles upload batch requests
type UploadHandler struct {
	uploader uploader.Uploader
	limits   config.LimitsConfig
	hub      *ProgressHub // nil when progress updates are disabled
	service  string
	version  string
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(u uploader.Uploader, limits config.LimitsConfig, hub *ProgressHub, service, version string) *UploadHandler {
	return &UploadHandler{
		uploader: u,
		limits:   limits,
		hub:      hub,
		service:  service,
		version:  version,
	}
}

// UploadBatch handles a multipart upload request. The whole request is validated
// before any file is forwarded; valid batches are dispatched concurrently and every
// file's outcome is reported back in submission order.
func (h *UploadHandler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(parseMemoryLimit); err != nil {
		sendJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File[UploadFieldName]
	if len(parts) == 0 {
		sendJSONError(w, "No files uploaded", http.StatusBadRequest)
		return
	}
	if len(parts) > h.limits.MaxFiles {
		sendJSONError(w, fmt.Sprintf("Too many files: got %d, maximum is %d", len(parts), h.limits.MaxFiles), http.StatusBadRequest)
		return
	}

	// Whole-request validation: one bad part rejects the batch before any remote call
	for _, part := range parts {
		if part.Size > h.limits.MaxFileSizeBytes {
			sendJSONError(w, fmt.Sprintf("File %s is too large: maximum size is %d bytes", part.Filename, h.limits.MaxFileSizeBytes), http.StatusBadRequest)
			return
		}
		if contentType := partContentType(part.Header.Get("Content-Type")); !h.limits.TypeAllowed(contentType) {
			sendJSONError(w, fmt.Sprintf("Unsupported file type %q for %s", contentType, part.Filename), http.StatusBadRequest)
			return
		}
	}

	files := make([]uploader.File, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			sendJSONError(w, fmt.Sprintf("Failed to read file %s", part.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			sendJSONError(w, fmt.Sprintf("Failed to read file %s", part.Filename), http.StatusBadRequest)
			return
		}

		files = append(files, uploader.File{
			Name:        part.Filename,
			ContentType: partContentType(part.Header.Get("Content-Type")),
			Data:        data,
		})
	}

	log.Printf("Uploading batch of %d files", len(files))
	h.hub.Broadcast("batch_started", map[string]interface{}{"fileCount": len(files)})

	result := uploader.UploadAll(r.Context(), h.uploader, files)

	for _, outcome := range result.Outcomes {
		if outcome.OK() {
			log.Printf("Uploaded %s as %s", outcome.Filename, outcome.RemoteID)
			h.hub.Broadcast("file_uploaded", outcome)
		} else {
			log.Printf("Upload of %s failed: %s", outcome.Filename, outcome.Error)
			h.hub.Broadcast("file_failed", outcome)
		}
	}
	h.hub.Broadcast("batch_completed", map[string]interface{}{
		"successCount": result.SuccessCount,
		"failureCount": result.FailureCount,
	})

	if result.SuccessCount == 0 {
		sendJSONResponse(w, models.APIResponse{
			Success: false,
			Error:   "All uploads failed",
			Results: result.Outcomes,
		}, http.StatusInternalServerError)
		return
	}

	sendJSONResponse(w, models.APIResponse{
		Success: true,
		Message: result.Summary(),
		Results: result.Outcomes,
	}, http.StatusOK)
}

// Health handles health check requests. It never consults the remote provider.
func (h *UploadHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, models.HealthStatus{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   h.service,
		Version:   h.version,
	}, http.StatusOK)
}

// partContentType normalizes a part's declared content type
func partContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// StaticHandler serves the frontend bundle, answering JSON 404s for paths that do not
// resolve to a file
type StaticHandler struct {
	Dir string
}

// ServeHTTP serves the requested file, falling back to index.html at the root
func (s StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(s.Dir, filepath.Clean("/"+r.URL.Path))

	if r.URL.Path == "/" {
		name = filepath.Join(s.Dir, "index.html")
	}

	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}

	NotFound(w, r)
}

// NotFound answers unmatched routes with a JSON body
func NotFound(w http.ResponseWriter, r *http.Request) {
	sendJSONError(w, "Not found", http.StatusNotFound)
}

// MethodNotAllowed answers method mismatches with a JSON body
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// sendJSONResponse sends a JSON response to the client
func sendJSONResponse(w http.ResponseWriter, response interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// sendJSONError sends a JSON error response to the client
func sendJSONError(w http.ResponseWriter, message string, status int) {
	sendJSONResponse(w, models.APIResponse{
		Success: false,
		Error:   message,
	}, status)
}
