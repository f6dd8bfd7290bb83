package output

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// S3Config holds the upload target. Credentials come from the default AWS
// chain (environment, shared config, instance role).
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`   // default us-east-1
	Endpoint string `yaml:"endpoint"` // optional; S3-compatible stores such as MinIO
}

// Enabled reports whether an upload target is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads run artifacts to a bucket.
type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Publisher builds an S3 client from cfg. A custom endpoint switches to
// path-style addressing.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Publisher{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key a local file is uploaded to.
func (p *S3Publisher) Key(file string) string {
	return path.Join(p.prefix, filepath.Base(file))
}

// Publish uploads each file under the configured prefix.
func (p *S3Publisher) Publish(ctx context.Context, files ...string) error {
	for _, file := range files {
		if err := p.upload(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func (p *S3Publisher) upload(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s for upload: %w", file, err)
	}
	defer f.Close()

	key := p.Key(file)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("uploading %s to s3://%s/%s: %w", file, p.bucket, key, err)
	}
	logrus.Infof("uploaded %s to s3://%s/%s", file, p.bucket, key)
	return nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "application/octet-stream"
}
