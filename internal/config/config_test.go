package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MU_UI_DIR", t.TempDir())
	t.Setenv("MU_LOCAL_DIR", t.TempDir())

	if err := LoadConfig(""); err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if AppConfig.Server.Port != 8080 {
		t.Errorf("Unexpected default port: %d", AppConfig.Server.Port)
	}
	if AppConfig.Uploader.Provider != "local" {
		t.Errorf("Unexpected default provider: %s", AppConfig.Uploader.Provider)
	}
	if AppConfig.Limits.MaxFiles != 10 {
		t.Errorf("Unexpected default max files: %d", AppConfig.Limits.MaxFiles)
	}
	if AppConfig.Limits.MaxFileSizeBytes != 50<<20 {
		t.Errorf("Unexpected default max file size: %d", AppConfig.Limits.MaxFileSizeBytes)
	}
	if !AppConfig.Limits.TypeAllowed("image/jpeg") {
		t.Error("Expected image/jpeg in the default allow-set")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MU_UI_DIR", t.TempDir())
	t.Setenv("MU_LOCAL_DIR", t.TempDir())
	t.Setenv("MU_PORT", "9090")
	t.Setenv("MU_PROVIDER", "photos")
	t.Setenv("MU_PHOTOS_ALBUM_ID", "album-9")
	t.Setenv("MU_MAX_FILES", "3")
	t.Setenv("MU_ALLOWED_TYPES", "image/png,image/webp")

	if err := LoadConfig(""); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if AppConfig.Server.Port != 9090 {
		t.Errorf("Port override not applied: %d", AppConfig.Server.Port)
	}
	if AppConfig.Uploader.Provider != "photos" {
		t.Errorf("Provider override not applied: %s", AppConfig.Uploader.Provider)
	}
	if AppConfig.Uploader.PhotosAlbumID != "album-9" {
		t.Errorf("Album override not applied: %s", AppConfig.Uploader.PhotosAlbumID)
	}
	if AppConfig.Limits.MaxFiles != 3 {
		t.Errorf("Max files override not applied: %d", AppConfig.Limits.MaxFiles)
	}
	if AppConfig.Limits.TypeAllowed("image/jpeg") {
		t.Error("Expected the overridden allow-set to drop image/jpeg")
	}
	if !AppConfig.Limits.TypeAllowed("image/webp") {
		t.Error("Expected image/webp in the overridden allow-set")
	}
}

func TestAllowedTypesEnvOverrideTrimsWhitespace(t *testing.T) {
	t.Setenv("MU_UI_DIR", t.TempDir())
	t.Setenv("MU_LOCAL_DIR", t.TempDir())
	t.Setenv("MU_ALLOWED_TYPES", "image/jpeg, image/png , ,video/mp4")

	if err := LoadConfig(""); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	for _, want := range []string{"image/jpeg", "image/png", "video/mp4"} {
		if !AppConfig.Limits.TypeAllowed(want) {
			t.Errorf("Expected %q in the allow-set, got %v", want, AppConfig.Limits.AllowedTypes)
		}
	}
	if len(AppConfig.Limits.AllowedTypes) != 3 {
		t.Errorf("Expected empty elements to be dropped, got %v", AppConfig.Limits.AllowedTypes)
	}
}

func TestTypeAllowed(t *testing.T) {
	limits := LimitsConfig{AllowedTypes: []string{"image/jpeg", "image/png"}}

	cases := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"IMAGE/JPEG", true},
		{"image/jpeg; charset=utf-8", true},
		{" image/png ", true},
		{"image/gif", false},
		{"text/plain", false},
		{"", false},
	}

	for _, c := range cases {
		if got := limits.TypeAllowed(c.contentType); got != c.want {
			t.Errorf("TypeAllowed(%q) = %v, want %v", c.contentType, got, c.want)
		}
	}
}

func TestUploaderOptionsPerProvider(t *testing.T) {
	cfg := UploaderConfig{
		Provider:        "drive",
		CredentialsFile: "key.json",
		DriveFolderID:   "folder-1",
		GCSBucket:       "bucket-1",
	}

	opts := cfg.Options()
	if opts["folderId"] != "folder-1" {
		t.Errorf("Expected the Drive folder in the options, got %q", opts["folderId"])
	}
	if opts["credentialsFile"] != "key.json" {
		t.Errorf("Expected the credentials file in the options, got %q", opts["credentialsFile"])
	}
	if _, ok := opts["bucket"]; ok {
		t.Error("Did not expect GCS keys in Drive options")
	}

	cfg.Provider = "gcs"
	if opts := cfg.Options(); opts["bucket"] != "bucket-1" {
		t.Errorf("Expected the GCS bucket in the options, got %q", opts["bucket"])
	}
}
