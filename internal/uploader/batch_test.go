package uploader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/mediauploader/internal/models"
)

// stubUploader runs a configurable function per file and counts invocations
type stubUploader struct {
	mu    sync.Mutex
	calls int
	fn    func(file File) models.Outcome
}

func (s *stubUploader) Initialize(config map[string]string) error {
	return nil
}

func (s *stubUploader) Upload(ctx context.Context, file File) models.Outcome {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.fn != nil {
		return s.fn(file)
	}
	return models.Outcome{Filename: file.Name, Status: models.StatusSuccess, RemoteID: "remote-" + file.Name}
}

func (s *stubUploader) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func makeFiles(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = File{
			Name:        fmt.Sprintf("photo-%d.jpg", i),
			ContentType: "image/jpeg",
			Data:        []byte("content"),
		}
	}
	return files
}

func TestUploadAllPreservesInputOrder(t *testing.T) {
	files := makeFiles(4)

	// Later files complete first; outcomes must still line up with the input
	stub := &stubUploader{fn: func(f File) models.Outcome {
		var index int
		fmt.Sscanf(f.Name, "photo-%d.jpg", &index)
		time.Sleep(time.Duration(len(files)-index) * 20 * time.Millisecond)
		return models.Outcome{Filename: f.Name, Status: models.StatusSuccess, RemoteID: "remote-" + f.Name}
	}}

	result := UploadAll(context.Background(), stub, files)

	if len(result.Outcomes) != len(files) {
		t.Fatalf("Expected %d outcomes, got %d", len(files), len(result.Outcomes))
	}
	for i, outcome := range result.Outcomes {
		if outcome.Filename != files[i].Name {
			t.Errorf("Outcome %d has filename %s, want %s", i, outcome.Filename, files[i].Name)
		}
	}
	if result.SuccessCount != len(files) {
		t.Errorf("Expected %d successes, got %d", len(files), result.SuccessCount)
	}
}

func TestUploadAllSettlesEveryFileOnPartialFailure(t *testing.T) {
	files := makeFiles(3)

	stub := &stubUploader{fn: func(f File) models.Outcome {
		if f.Name == "photo-1.jpg" {
			return models.Failed(f.Name, "remote rejected the file", "")
		}
		return models.Outcome{Filename: f.Name, Status: models.StatusSuccess, RemoteID: "remote-" + f.Name}
	}}

	result := UploadAll(context.Background(), stub, files)

	if stub.callCount() != 3 {
		t.Errorf("Expected all 3 files to be attempted, got %d calls", stub.callCount())
	}
	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Errorf("Expected 2 successes and 1 failure, got %d/%d", result.SuccessCount, result.FailureCount)
	}
	if result.Outcomes[1].OK() {
		t.Error("Expected the failing file's outcome at its input position")
	}
	if result.Outcomes[1].Error != "remote rejected the file" {
		t.Errorf("Unexpected failure message: %s", result.Outcomes[1].Error)
	}
}

func TestUploadAllRecoversFromPanic(t *testing.T) {
	files := makeFiles(2)

	stub := &stubUploader{fn: func(f File) models.Outcome {
		if f.Name == "photo-0.jpg" {
			panic("boom")
		}
		return models.Outcome{Filename: f.Name, Status: models.StatusSuccess, RemoteID: "remote-" + f.Name}
	}}

	result := UploadAll(context.Background(), stub, files)

	if result.Outcomes[0].OK() {
		t.Error("Expected a failure outcome for the panicking upload")
	}
	if !strings.Contains(result.Outcomes[0].Error, "internal error") {
		t.Errorf("Unexpected failure message: %s", result.Outcomes[0].Error)
	}
	if !result.Outcomes[1].OK() {
		t.Error("Expected the other file's upload to be unaffected")
	}
}

func TestUploadAllEmptyBatch(t *testing.T) {
	stub := &stubUploader{}

	result := UploadAll(context.Background(), stub, nil)

	if len(result.Outcomes) != 0 || result.SuccessCount != 0 || result.FailureCount != 0 {
		t.Errorf("Expected an empty result, got %+v", result)
	}
	if stub.callCount() != 0 {
		t.Errorf("Expected no uploader calls, got %d", stub.callCount())
	}
}
