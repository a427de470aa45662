package source

import (
	"context"
	"fmt"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client the loader needs.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ParseS3 splits s3://bucket/key.
func ParseS3(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 locator: %s", locator)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 locator needs bucket and key: %s", locator)
	}
	return bucket, key, nil
}

// NewS3Client builds an S3 client from the default credential chain, with
// optional region, endpoint (MinIO and friends) and path-style addressing.
func NewS3Client(ctx context.Context, region, endpoint string, pathStyle bool) (*s3.Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		o.Retryer = aws.NopRetryer{}
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (l *Loader) s3Client(ctx context.Context) (S3API, error) {
	l.s3mu.Lock()
	defer l.s3mu.Unlock()
	if l.s3 != nil {
		return l.s3, nil
	}
	c, err := NewS3Client(ctx, l.cfg.S3Region, l.cfg.S3Endpoint, l.cfg.S3PathStyle)
	if err != nil {
		return nil, err
	}
	l.s3 = c
	return c, nil
}

func (l *Loader) fetchS3(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, err := ParseS3(locator)
	if err != nil {
		return nil, err
	}
	client, err := l.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("s3 get", zap.String("bucket", bucket), zap.String("key", key))
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("s3 get %s: %w", locator, err)
	}
	defer out.Body.Close()

	body, err := readAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	return body, nil
}
