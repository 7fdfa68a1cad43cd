package storage

import (
	"bytes"
	"context"
	"fmt"

	"paper-vault/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt einen S3-Client für den konfigurierten Objektspeicher.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.S3URL,
				SigningRegion:     cfg.S3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// S3Store kapselt Bucket und Client für die Paper-PDFs.
type S3Store struct {
	Client  *s3.Client
	Bucket  string
	BaseURL string
}

// NewS3Store erstellt einen S3Store für den konfigurierten Bucket.
func NewS3Store(client *s3.Client, cfg *config.Config) *S3Store {
	return &S3Store{Client: client, Bucket: cfg.S3Bucket, BaseURL: cfg.S3URL}
}

// Upload lädt eine Datei unter dem gegebenen Schlüssel hoch und gibt den öffentlichen Link zurück.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.BaseURL, s.Bucket, key), nil
}

// Delete entfernt eine Datei aus dem Bucket.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}
