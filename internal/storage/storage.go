// Package storage archives carryover run reports, either on local disk or in
// an S3-compatible bucket (DigitalOcean Spaces).
package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

type Storage interface {
	// Save writes body under key and returns where it ended up.
	Save(key string, body []byte, contentType string) (string, error)
}

type LocalStorage struct {
	dir string
}

type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return newSpacesStorage(s3.New(sess), bucket, cdnURL), nil
}

func newSpacesStorage(client s3iface.S3API, bucket, cdnURL string) *SpacesStorage {
	return &SpacesStorage{client: client, bucket: bucket, cdnURL: cdnURL}
}

func (ls *LocalStorage) Save(key string, body []byte, contentType string) (string, error) {
	path := filepath.Join(ls.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	log.Debug().Str("path", path).Msg("report saved locally")
	return path, nil
}

func (ss *SpacesStorage) Save(key string, body []byte, contentType string) (string, error) {
	_, err := ss.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         aws.String("private"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload report to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	if ss.cdnURL == "" {
		return fmt.Sprintf("s3://%s/%s", ss.bucket, key), nil
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}
