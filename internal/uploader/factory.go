package uploader

import (
	"fmt"
	"log"
	"sync"
)

// Factory is responsible for creating upload providers
type Factory struct {
	mu sync.RWMutex
	// Track unavailable providers
	unavailable map[string]string
}

// NewFactory creates a new uploader factory
func NewFactory() *Factory {
	return &Factory{
		unavailable: make(map[string]string),
	}
}

// MarkUnavailable marks a provider type as unavailable with a reason
func (f *Factory) MarkUnavailable(provider, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable[provider] = reason
	log.Printf("Upload provider '%s' marked as unavailable: %s", provider, reason)
}

// IsAvailable checks if a provider type is available
func (f *Factory) IsAvailable(provider string) (bool, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	reason, unavailable := f.unavailable[provider]
	return !unavailable, reason
}

// Create creates a new upload provider instance based on the config
func (f *Factory) Create(provider string, config map[string]string) (Uploader, error) {
	f.mu.RLock()
	if reason, unavailable := f.unavailable[provider]; unavailable {
		f.mu.RUnlock()
		return nil, fmt.Errorf("%s provider is currently unavailable: %s", provider, reason)
	}
	f.mu.RUnlock()

	var u Uploader

	switch provider {
	case "local", "":
		u = NewLocalUploader()
	case "drive", "googledrive":
		u = NewDriveUploader()
	case "photos", "googlephotos":
		u = NewPhotosUploader()
	case "gcs", "google":
		u = NewGCSUploader()
	case "s3", "amazon", "aws":
		u = NewS3Uploader()
	default:
		return nil, fmt.Errorf("unsupported upload provider type: %s", provider)
	}

	if err := u.Initialize(config); err != nil {
		f.MarkUnavailable(provider, err.Error())
		return nil, fmt.Errorf("failed to initialize %s upload provider: %w", provider, err)
	}

	return u, nil
}

// DefaultFactory is the default uploader factory instance
var DefaultFactory = NewFactory()

// Create creates an upload provider using the default factory
func Create(provider string, config map[string]string) (Uploader, error) {
	return DefaultFactory.Create(provider, config)
}

// IsAvailable checks if a provider type is available using the default factory
func IsAvailable(provider string) (bool, string) {
	return DefaultFactory.IsAvailable(provider)
}
