package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	cfgpkg "llm-scoring/internal/config"
	"llm-scoring/internal/logger"
)

type Client struct {
	s3     *s3.Client
	bucket string
}

// New builds a client for a MinIO-compatible endpoint with static credentials.
func New(ctx context.Context, c cfgpkg.S3Config) (*Client, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is not configured")
	}
	endpoint := c.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
	})
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
		config.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}
	return &Client{s3: s3.NewFromConfig(cfg), bucket: c.Bucket}, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

// PutCSV uploads body under key in the client's bucket and returns its s3:// ref.
func (c *Client) PutCSV(ctx context.Context, key string, body []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", err
	}
	ref := Ref(c.bucket, key)
	logger.Info("uploaded object", zap.String("ref", ref), zap.Int("bytes", len(body)))
	return ref, nil
}

func Ref(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

func ParseRef(ref string) (string, string, error) {
	const p = "s3://"
	if !strings.HasPrefix(ref, p) {
		return "", "", fmt.Errorf("bad s3 ref (missing s3://): %q", ref)
	}
	s := strings.TrimPrefix(ref, p)
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return "", "", fmt.Errorf("bad s3 ref (need bucket/key): %q", ref)
	}
	return s[:slash], s[slash+1:], nil
}

// Open streams the object behind ref. Unlike exports, refs may name any
// bucket, so datasets can live next to the export bucket.
func (c *Client) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		logger.Error("failed to get s3 object", zap.String("ref", ref), zap.Error(err))
		return nil, err
	}
	return out.Body, nil
}
