package uploader

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/example/mediauploader/internal/models"
)

// UploadAll dispatches every file to the uploader concurrently and waits for all of
// them to settle. No file's failure affects whether the others are attempted.
//
// Each outcome is written at the index of its input file, so callers can rely on
// positional correlation between files and outcomes regardless of completion order.
func UploadAll(ctx context.Context, u Uploader, files []File) models.BatchResult {
	outcomes := make([]models.Outcome, len(files))

	var wg sync.WaitGroup
	wg.Add(len(files))
	for i, f := range files {
		go func(i int, f File) {
			defer wg.Done()
			// Upload implementations convert their own failures to outcomes; this
			// guard keeps a programming error in one of them from sinking the batch.
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Upload of %s panicked: %v", f.Name, r)
					outcomes[i] = models.Failed(f.Name, fmt.Sprintf("internal error during upload: %v", r), "")
				}
			}()
			outcomes[i] = u.Upload(ctx, f)
		}(i, f)
	}
	wg.Wait()

	result := models.BatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}
	return result
}
