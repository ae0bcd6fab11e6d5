package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/example/mediauploader/internal/models"
)

// S3Uploader forwards files to an Amazon S3 bucket
type S3Uploader struct {
	region    string
	bucket    string
	prefix    string
	accessKey string
	secretKey string

	initOnce sync.Once
	uploader *s3manager.Uploader
	initErr  error
}

// NewS3Uploader creates a new Amazon S3 upload provider
func NewS3Uploader() *S3Uploader {
	return &S3Uploader{}
}

// Initialize stores the S3 configuration
func (a *S3Uploader) Initialize(config map[string]string) error {
	a.region = config["region"]
	a.bucket = config["bucket"]
	a.prefix = config["prefix"]
	a.accessKey = config["accessKey"]
	a.secretKey = config["secretKey"]
	return nil
}

// s3Uploader returns the shared upload manager, constructing its session on first use.
// A construction failure is cached and reported by every subsequent call.
func (a *S3Uploader) s3Uploader() (*s3manager.Uploader, error) {
	a.initOnce.Do(func() {
		if a.region == "" {
			a.initErr = errors.New("no AWS region configured")
			return
		}

		cfg := &aws.Config{Region: aws.String(a.region)}
		if a.accessKey != "" && a.secretKey != "" {
			cfg.Credentials = credentials.NewStaticCredentials(a.accessKey, a.secretKey, "")
		}

		sess, err := session.NewSession(cfg)
		if err != nil {
			a.initErr = fmt.Errorf("failed to create AWS session: %w", err)
			return
		}
		a.uploader = s3manager.NewUploader(sess)
	})
	return a.uploader, a.initErr
}

// Upload writes the file as a new object in the configured bucket
func (a *S3Uploader) Upload(ctx context.Context, file File) models.Outcome {
	uploader, err := a.s3Uploader()
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Amazon S3 client unavailable: %v", err), "")
	}

	if a.bucket == "" {
		return models.Failed(file.Name, "no Amazon S3 bucket configured", "")
	}

	key := fmt.Sprintf("%s%d-%s", a.prefix, time.Now().UnixNano(), file.Name)

	result, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
		Metadata: map[string]*string{
			"filename": aws.String(file.Name),
		},
	})
	if err != nil {
		return models.Failed(file.Name, fmt.Sprintf("Amazon S3 upload failed: %v", err), "")
	}

	createdAt := time.Now().UTC()
	return models.Outcome{
		Filename:  file.Name,
		Status:    models.StatusSuccess,
		RemoteID:  key,
		Link:      result.Location,
		Size:      int64(len(file.Data)),
		CreatedAt: &createdAt,
	}
}
