package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"hardhat-gateway/internal/config"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const (
	emptyAWSSessionToken         = ""
	s3URIScheme                  = "s3://"
	errFailedCreateAWSSessionFmt = "failed to create AWS session: %w"
	errFailedFetchObjectFmt      = "failed to fetch object %s: %w"
	errInvalidS3URIFmt           = "invalid s3 uri: %s"
)

// Client fetches generated artifacts the generator published to object
// storage as s3://bucket/key output paths.
type Client struct {
	svc           *s3.S3
	defaultBucket string
}

func NewClient(cfg *config.ArtifactsConfig) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		),
	})

	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return &Client{
		svc:           s3.New(sess),
		defaultBucket: cfg.Bucket,
	}, nil
}

// IsS3Path reports whether an output path points at object storage rather
// than the generator's local filesystem.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3URIScheme)
}

// Fetch streams the object behind an s3://bucket/key URI. A bare key is
// resolved against the configured default bucket. The caller must close the
// returned body.
func (c *Client) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := c.split(path)
	if err != nil {
		return nil, err
	}

	out, err := c.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, apperrors.NotFound("artifact not found")
		}
		return nil, fmt.Errorf(errFailedFetchObjectFmt, path, err)
	}

	return out.Body, nil
}

func (c *Client) split(path string) (bucket, key string, err error) {
	if !IsS3Path(path) {
		if c.defaultBucket == "" {
			return "", "", fmt.Errorf(errInvalidS3URIFmt, path)
		}
		return c.defaultBucket, strings.TrimPrefix(path, "/"), nil
	}

	rest := strings.TrimPrefix(path, s3URIScheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf(errInvalidS3URIFmt, path)
	}
	return bucket, key, nil
}
