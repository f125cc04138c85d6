// Package media issues presigned S3 upload URLs for video and thumbnail
// files and removes stored objects when their video is deleted.
//
// Any S3-compatible endpoint works (MinIO in development). Clients PUT
// the file bytes straight to the presigned URL; the API only ever sees
// the resulting object key.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/config"
)

// Object kinds accepted by PresignUpload.
const (
	KindVideo     = "video"
	KindThumbnail = "thumbnail"
)

// ErrUnknownKind is returned for an object kind other than video or thumbnail.
var ErrUnknownKind = errors.New("media: unknown object kind")

var (
	loadAWSConfig = awsconfig.LoadDefaultConfig

	presignPut = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type objectDeleter interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Upload is a presigned PUT target for one object.
type Upload struct {
	Kind      string    `json:"kind"`
	Key       string    `json:"key"`
	URL       string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store wraps an S3 bucket.
type Store struct {
	presign   *s3.PresignClient
	objects   objectDeleter
	bucket    string
	publicURL string
	ttl       time.Duration
	now       func() time.Time
}

// New builds a Store from storage configuration using static credentials.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	awsCfg, err := loadAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := time.Duration(cfg.PresignTTL) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" && cfg.Endpoint != "" {
		publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &Store{
		presign:   s3.NewPresignClient(client),
		objects:   client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// PresignUpload returns a presigned PUT URL under a fresh key owned by ownerID.
func (s *Store) PresignUpload(ctx context.Context, ownerID, kind, contentType string) (Upload, error) {
	if kind != KindVideo && kind != KindThumbnail {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	key := objectKey(kind, ownerID, s.now())
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPut(s.presign, ctx, in, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return Upload{}, fmt.Errorf("presigning %s upload: %w", kind, err)
	}

	return Upload{
		Kind:      kind,
		Key:       key,
		URL:       req.URL,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}, nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + key
}

// Owns reports whether key was issued to ownerID.
func (s *Store) Owns(ownerID, key string) bool {
	parts := strings.SplitN(key, "/", 3)
	return len(parts) == 3 && parts[1] == ownerID
}

// Delete removes the object at key. An empty key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

// objectKey lays keys out as <kind>s/<owner>/<yyyy>/<mm>/<uuid>.
func objectKey(kind, ownerID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%ss/%s/%04d/%02d/%s", kind, ownerID, at.Year(), int(at.Month()), uuid.NewString())
}
