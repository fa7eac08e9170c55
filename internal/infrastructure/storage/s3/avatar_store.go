// Package s3 stores uploaded profile pictures in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/storefront/identity/internal/core/ports"
)

const maxAvatarSize = 5 << 20

// ErrAvatarTooLarge is returned for uploads above maxAvatarSize.
var ErrAvatarTooLarge = errors.New("avatar exceeds size limit")

// Config holds the bucket settings. Endpoint is optional and selects an
// S3-compatible service instead of AWS.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// objectPutter is the subset of *s3.Client used by AvatarStore.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AvatarStore implements ports.AvatarStore on S3.
type AvatarStore struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewClient builds an S3 client from static credentials.
func NewClient(cfg Config) *s3.Client {
	return s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
				Source:          "identity-config",
			}, nil
		}),
		BaseEndpoint: optionalString(cfg.Endpoint),
		UsePathStyle: cfg.Endpoint != "",
	})
}

// NewAvatarStore returns an AvatarStore writing to cfg.Bucket.
func NewAvatarStore(client objectPutter, cfg Config) *AvatarStore {
	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &AvatarStore{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(base, "/")}
}

// Upload stores the picture under avatars/<random><ext> and returns its URL.
func (s *AvatarStore) Upload(ctx context.Context, upload ports.AvatarUpload) (string, error) {
	if upload.Size > maxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(upload.Body, maxAvatarSize+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if n > maxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	key, err := objectKey(upload.Filename)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(upload.ContentType),
		Metadata: map[string]string{
			"original-filename": upload.Filename,
			"upload-time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

func objectKey(filename string) (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "avatars/" + hex.EncodeToString(b) + strings.ToLower(path.Ext(filename)), nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

var _ ports.AvatarStore = (*AvatarStore)(nil)
