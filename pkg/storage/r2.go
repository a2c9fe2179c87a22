package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// R2Storage writes public assets to a Cloudflare R2 bucket through the S3 API.
type R2Storage struct {
	client        *s3.Client
	bucketName    string
	publicURL     string
	uploadTimeout time.Duration
}

func NewR2Storage(ctx context.Context, accountID, accessKey, secretKey, bucketName, publicURL string, uploadTimeout time.Duration) (*R2Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:        client,
		bucketName:    bucketName,
		publicURL:     strings.TrimSuffix(publicURL, "/"),
		uploadTimeout: uploadTimeout,
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/webp":
		return ".webp"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return ".bin"
}

// ObjectKey builds a unique key under prefix for the given content type.
func ObjectKey(prefix, contentType string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "uploads"
	}
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), extensionFor(contentType))
}

// UploadBuffer uploads data under prefix and returns its public URL.
func (s *R2Storage) UploadBuffer(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	key := ObjectKey(prefix, contentType)

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload buffer to R2: %w", err)
	}

	return s.publicURL + "/" + key, nil
}

// KeyFromURL returns the object key of a URL served from publicURL.
func KeyFromURL(publicURL, fileURL string) (string, error) {
	publicURL = strings.TrimSuffix(publicURL, "/")
	if !strings.HasPrefix(fileURL, publicURL+"/") {
		return "", fmt.Errorf("invalid file URL: domain mismatch")
	}
	key := strings.TrimPrefix(fileURL, publicURL+"/")
	if key == "" {
		return "", fmt.Errorf("invalid file key derived from URL")
	}
	return key, nil
}

// DeleteFile deletes an object by its public URL. URLs outside the bucket's
// public domain are refused.
func (s *R2Storage) DeleteFile(ctx context.Context, fileURL string) error {
	key, err := KeyFromURL(s.publicURL, fileURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from R2: %w", err)
	}
	return nil
}
