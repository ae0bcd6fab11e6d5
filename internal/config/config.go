// Package config provides configuration management for the media upload gateway
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings holds the application configuration
type Settings struct {
	Server   ServerConfig   `json:"server"`
	Uploader UploaderConfig `json:"uploader"`
	Limits   LimitsConfig   `json:"limits"`
	Features FeatureConfig  `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port            int      `json:"port"`
	Host            string   `json:"host"`
	UIDir           string   `json:"uiDir"`
	CertFile        string   `json:"certFile"`
	KeyFile         string   `json:"keyFile"`
	ShutdownTimeout int      `json:"shutdownTimeout"`
	AllowedOrigins  []string `json:"allowedOrigins"`
}

// UploaderConfig selects the upload provider and carries its credentials and target
type UploaderConfig struct {
	Provider        string `json:"provider"`
	CredentialsFile string `json:"credentialsFile"`
	DriveFolderID   string `json:"driveFolderId"`
	PhotosAlbumID   string `json:"photosAlbumId"`
	PhotosEndpoint  string `json:"photosEndpoint"`
	GCSBucket       string `json:"gcsBucket"`
	GCSPrefix       string `json:"gcsPrefix"`
	S3Region        string `json:"s3Region"`
	S3Bucket        string `json:"s3Bucket"`
	S3AccessKey     string `json:"s3AccessKey"`
	S3SecretKey     string `json:"s3SecretKey"`
	S3Prefix        string `json:"s3Prefix"`
	LocalDir        string `json:"localDir"`
}

// Options returns the provider-specific configuration map consumed by the uploader
// factory for the configured provider.
func (c UploaderConfig) Options() map[string]string {
	opts := map[string]string{
		"credentialsFile": c.CredentialsFile,
	}

	switch c.Provider {
	case "drive", "googledrive":
		opts["folderId"] = c.DriveFolderID
	case "photos", "googlephotos":
		opts["albumId"] = c.PhotosAlbumID
		if c.PhotosEndpoint != "" {
			opts["endpoint"] = c.PhotosEndpoint
		}
	case "gcs", "google":
		opts["bucket"] = c.GCSBucket
		opts["prefix"] = c.GCSPrefix
	case "s3", "amazon", "aws":
		opts["region"] = c.S3Region
		opts["bucket"] = c.S3Bucket
		opts["accessKey"] = c.S3AccessKey
		opts["secretKey"] = c.S3SecretKey
		opts["prefix"] = c.S3Prefix
	default:
		opts["basePath"] = c.LocalDir
	}

	return opts
}

// LimitsConfig contains per-request upload constraints
type LimitsConfig struct {
	MaxFiles         int      `json:"maxFiles"`
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes"`
	AllowedTypes     []string `json:"allowedTypes"`
}

// TypeAllowed reports whether the given content type is in the configured allow-set.
// Media type parameters (e.g. "; charset=...") are ignored for the comparison.
func (l LimitsConfig) TypeAllowed(contentType string) bool {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i != -1 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	for _, allowed := range l.AllowedTypes {
		if mediaType == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

// FeatureConfig contains feature flags
type FeatureConfig struct {
	EnableProgressUpdates bool `json:"enableProgressUpdates"`
}

// AppConfig is the global application configuration
var AppConfig Settings

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configFile string) error {
	// Set defaults
	AppConfig = Settings{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			UIDir:           "./ui",
			ShutdownTimeout: 30,
		},
		Uploader: UploaderConfig{
			Provider: "local",
			LocalDir: "./uploads",
		},
		Limits: LimitsConfig{
			MaxFiles:         10,
			MaxFileSizeBytes: 50 << 20,
			AllowedTypes: []string{
				"image/jpeg",
				"image/png",
				"image/gif",
				"image/webp",
				"image/heic",
				"video/mp4",
			},
		},
		Features: FeatureConfig{
			EnableProgressUpdates: true,
		},
	}

	// Load from config file if it exists
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return fmt.Errorf("error reading config file: %w", err)
			}

			if err := json.Unmarshal(data, &AppConfig); err != nil {
				return fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv()

	// Create required directories
	if err := ensureDirectoriesExist(); err != nil {
		return err
	}

	return nil
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv() {
	// Server config
	if port := os.Getenv("MU_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			AppConfig.Server.Port = p
		}
	}

	if host := os.Getenv("MU_HOST"); host != "" {
		AppConfig.Server.Host = host
	}

	if uiDir := os.Getenv("MU_UI_DIR"); uiDir != "" {
		AppConfig.Server.UIDir = uiDir
	}

	if certFile := os.Getenv("MU_CERT_FILE"); certFile != "" {
		AppConfig.Server.CertFile = certFile
	}

	if keyFile := os.Getenv("MU_KEY_FILE"); keyFile != "" {
		AppConfig.Server.KeyFile = keyFile
	}

	// Uploader config
	if provider := os.Getenv("MU_PROVIDER"); provider != "" {
		AppConfig.Uploader.Provider = provider
	}

	if credFile := os.Getenv("MU_CREDENTIALS_FILE"); credFile != "" {
		AppConfig.Uploader.CredentialsFile = credFile
	}

	if folderID := os.Getenv("MU_DRIVE_FOLDER_ID"); folderID != "" {
		AppConfig.Uploader.DriveFolderID = folderID
	}

	if albumID := os.Getenv("MU_PHOTOS_ALBUM_ID"); albumID != "" {
		AppConfig.Uploader.PhotosAlbumID = albumID
	}

	if bucket := os.Getenv("MU_GCS_BUCKET"); bucket != "" {
		AppConfig.Uploader.GCSBucket = bucket
	}

	if region := os.Getenv("MU_S3_REGION"); region != "" {
		AppConfig.Uploader.S3Region = region
	}

	if bucket := os.Getenv("MU_S3_BUCKET"); bucket != "" {
		AppConfig.Uploader.S3Bucket = bucket
	}

	if localDir := os.Getenv("MU_LOCAL_DIR"); localDir != "" {
		AppConfig.Uploader.LocalDir = localDir
	}

	// Limits
	if maxFiles := os.Getenv("MU_MAX_FILES"); maxFiles != "" {
		if n, err := strconv.Atoi(maxFiles); err == nil {
			AppConfig.Limits.MaxFiles = n
		}
	}

	if maxSize := os.Getenv("MU_MAX_FILE_SIZE"); maxSize != "" {
		if n, err := strconv.ParseInt(maxSize, 10, 64); err == nil {
			AppConfig.Limits.MaxFileSizeBytes = n
		}
	}

	if types := os.Getenv("MU_ALLOWED_TYPES"); types != "" {
		var allowed []string
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				allowed = append(allowed, t)
			}
		}
		AppConfig.Limits.AllowedTypes = allowed
	}

	// Feature flags
	if progress := os.Getenv("MU_ENABLE_PROGRESS"); progress != "" {
		AppConfig.Features.EnableProgressUpdates = progress == "true" || progress == "1"
	}
}

// ensureDirectoriesExist creates required directories if they don't exist
func ensureDirectoriesExist() error {
	dirs := []string{
		AppConfig.Server.UIDir,
	}
	if AppConfig.Uploader.Provider == "local" || AppConfig.Uploader.Provider == "" {
		dirs = append(dirs, AppConfig.Uploader.LocalDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		// Resolve relative paths
		if !filepath.IsAbs(dir) {
			dir = filepath.Clean(dir)
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetAddressString returns the address string for the server to listen on
func GetAddressString() string {
	return fmt.Sprintf("%s:%d", AppConfig.Server.Host, AppConfig.Server.Port)
}
