package export

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stepframe/stepframe/pkg/config"
)

// Compile-time interface check.
var _ Writer = (*s3Writer)(nil)

type s3Writer struct {
	log    logrus.FieldLogger
	cfg    *config.S3ExportConfig
	client *s3.Client
}

// NewS3Writer creates a Writer backed by S3-compatible storage.
func NewS3Writer(
	log logrus.FieldLogger,
	cfg *config.S3ExportConfig,
) Writer {
	return &s3Writer{
		log:    log.WithField("component", "s3-export"),
		cfg:    cfg,
		client: newS3Client(cfg),
	}
}

// Write uploads data under {prefix}/{name} and returns the s3:// URL.
func (w *s3Writer) Write(
	ctx context.Context, name string, data []byte,
) (string, error) {
	key := name
	if w.cfg.Prefix != "" {
		key = path.Join(strings.TrimRight(w.cfg.Prefix, "/"), name)
	}

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(name)),
	})
	if err != nil {
		return "", fmt.Errorf(
			"uploading s3://%s/%s: %w", w.cfg.Bucket, key, err,
		)
	}

	location := fmt.Sprintf("s3://%s/%s", w.cfg.Bucket, key)

	w.log.WithFields(logrus.Fields{
		"location": location,
		"bytes":    len(data),
	}).Debug("Uploaded export")

	return location, nil
}

// contentTypeFor guesses a MIME type from the file extension.
func contentTypeFor(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}

		return "application/octet-stream"
	}
}

func newS3Client(cfg *config.S3ExportConfig) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = "us-east-1"
			}

			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}

			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}

			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}

	return s3.New(s3.Options{}, opts...)
}
