// Package archive writes immutable commit objects for every record merge
// to S3-compatible storage, keyed streams/<stream id>/<version>.json.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
)

type Archive interface {
	Put(ctx context.Context, commit models.Commit) error
}

// Nop drops commits. Used when no bucket is configured.
type Nop struct{}

func (Nop) Put(context.Context, models.Commit) error { return nil }

// Options configures the S3 archive.
type Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client putObjectAPI
	bucket string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3 builds an archive client. Static credentials are used when given,
// otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, o Options) (*S3Archive, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	})

	return newS3Archive(client, o.Bucket), nil
}

func newS3Archive(client putObjectAPI, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

func Key(streamID string, version int64) string {
	return fmt.Sprintf("streams/%s/%d.json", streamID, version)
}

func (a *S3Archive) Put(ctx context.Context, commit models.Commit) error {
	body, err := json.Marshal(commit)
	if err != nil {
		return fmt.Errorf("encode commit: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(commit.StreamID, commit.Version)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put commit %s v%d: %w", commit.StreamID, commit.Version, err)
	}
	return nil
}
