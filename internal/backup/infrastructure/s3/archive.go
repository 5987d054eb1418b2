// Package s3 stores backup documents in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const contentType = "application/json"

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Archive keeps backups under a key prefix of one bucket.
type Archive struct {
	api    ObjectAPI
	bucket string
	prefix string
}

// Option configures the archive.
type Option func(*Archive)

// WithPrefix sets the key prefix, "backups/" by default.
func WithPrefix(prefix string) Option {
	return func(a *Archive) {
		a.prefix = prefix
	}
}

// NewArchive wraps an existing client.
func NewArchive(api ObjectAPI, bucket string, opts ...Option) (*Archive, error) {
	if api == nil {
		return nil, errors.New("s3: client is nil")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3: bucket is required")
	}
	a := &Archive{api: api, bucket: bucket, prefix: "backups/"}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Open loads the default AWS configuration for region and builds an archive.
func Open(ctx context.Context, region, bucket string, opts ...Option) (*Archive, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewArchive(s3.NewFromConfig(cfg), bucket, opts...)
}

func (a *Archive) key(name string) string {
	if strings.HasPrefix(name, a.prefix) {
		return name
	}
	return a.prefix + name
}

// Upload stores body under name and returns the object key.
func (a *Archive) Upload(ctx context.Context, name string, body []byte) (string, error) {
	key := a.key(name)
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3: upload %s: %w", key, err)
	}
	return key, nil
}

// Download returns the document stored under name.
func (a *Archive) Download(ctx context.Context, name string) ([]byte, error) {
	key := a.key(name)
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: download %s: %w", key, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read %s: %w", key, err)
	}
	return body, nil
}

// List returns the stored keys, newest name first.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(a.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.prefix),
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}
