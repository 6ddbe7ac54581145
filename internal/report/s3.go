// Package report — s3.go
//
// S3Sink stores run artifacts in an S3-compatible bucket so CI runs leave a
// durable trail. Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare
// R2 — the endpoint override plus path-style addressing covers them all.
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shashiranjanraj/mediaprobe/config"
)

// S3Sink stores artifacts as objects under the "runs/" prefix.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3Sink builds an S3Sink from the S3_* config keys.
func NewS3Sink() (*S3Sink, error) {
	bucket := config.S3Bucket()
	if bucket == "" {
		return nil, fmt.Errorf("report/s3: S3_BUCKET is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(config.S3Region()),
	}

	// Static credentials (required for MinIO / R2 / Spaces)
	if key, secret := config.S3Key(), config.S3Secret(); key != "" && secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("report/s3: load config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if endpoint := config.S3Endpoint(); endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &S3Sink{
		client: s3.NewFromConfig(cfg, clientOpts...),
		bucket: bucket,
	}, nil
}

func (s *S3Sink) Put(path string, content []byte) error {
	key := "runs/" + strings.TrimLeft(strings.ReplaceAll(path, "\\", "/"), "/")
	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("report/s3: put %s: %w", key, err)
	}
	return nil
}
