// Package publish ships scan results to AWS after a run: the CSV report to
// S3 and per-region public-instance counts to CloudWatch.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
)

// S3API is the subset of S3 operations used to upload reports.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads report files under an s3://bucket/prefix location.
type S3Publisher struct {
	client S3API
}

// NewS3Publisher returns a publisher backed by a real S3 client for cfg.
func NewS3Publisher(cfg aws.Config) *S3Publisher {
	return &S3Publisher{client: s3.NewFromConfig(cfg)}
}

// NewS3PublisherWithClient returns a publisher that uses client. Pass a mock
// in tests.
func NewS3PublisherWithClient(client S3API) *S3Publisher {
	return &S3Publisher{client: client}
}

// ParseS3URI splits s3://bucket/prefix into its bucket and key prefix.
// The prefix has no leading or trailing slash and may be empty.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("S3 URI %q must start with s3://", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("S3 URI %q has no bucket", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Upload stores body as name under uri and returns the object's s3:// URI.
func (p *S3Publisher) Upload(ctx context.Context, uri, name, contentType string, body []byte) (string, error) {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return "", herrors.New(herrors.ErrConfigInvalid, "invalid S3 destination", nil, err)
	}
	key := path.Join(prefix, name)

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", herrors.New(herrors.ErrOutput, "upload report to S3",
			map[string]interface{}{
				"bucket":   bucket,
				"key":      key,
				"api_code": herrors.APICode(err),
			}, err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}
