package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// S3PutObjectAPI is the part of the S3 client the uploader uses.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader publishes filled decks to S3.
type S3Uploader struct {
	Client S3PutObjectAPI
	Bucket string
	Prefix string
}

func NewS3Uploader(cfg aws.Config, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}
}

// Key returns the object key for a local file: Prefix joined with its base name.
func (u *S3Uploader) Key(localPath string) string {
	return strings.TrimPrefix(path.Join(u.Prefix, filepath.Base(localPath)), "/")
}

// UploadFile uploads one file and returns its key.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string, metadata map[string]string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	key := u.Key(localPath)
	input := &s3.PutObjectInput{
		Bucket:   aws.String(u.Bucket),
		Key:      aws.String(key),
		Body:     file,
		Metadata: metadata,
	}
	if strings.EqualFold(filepath.Ext(localPath), ".pptx") {
		input.ContentType = aws.String(pptxContentType)
	}

	slog.Info("Uploading to S3", "local", localPath, "bucket", u.Bucket, "key", key)
	if _, err := u.Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}
	return key, nil
}
