// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// generated slide images. It wraps the AWS SDK v2 and uses path-style
// addressing so it works against MinIO, Ceph and Hetzner as well as AWS.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Config holds the connection settings for the object store.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // optional CDN/direct URL for served files
}

// Client uploads and removes publicly readable objects in one bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// New creates a storage client. It returns (nil, nil) when the endpoint or
// credentials are empty so the app can start without storage; features
// that need it report that it is unavailable.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores an object with a public-read ACL.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL for key. The configured public URL wins
// over the path-style endpoint URL.
func (c *Client) FileURL(key string) string {
	return c.base() + key
}

// KeyFromURL extracts the object key from a URL produced by FileURL.
func (c *Client) KeyFromURL(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, c.base())
	return key, ok && key != ""
}

func (c *Client) base() string {
	if c.publicURL != "" {
		return c.publicURL + "/"
	}
	return c.endpoint + "/" + c.bucket + "/"
}

// ImageKey returns a fresh object key for a generated image owned by userID.
func ImageKey(userID uuid.UUID, contentType string) string {
	ext := ".png"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	return "images/" + userID.String() + "/" + uuid.New().String() + ext
}

// ExportKey returns the object key of one exported slide. Re-exporting a
// carousel overwrites its previous files.
func ExportKey(userID, carouselID uuid.UUID, position int) string {
	return fmt.Sprintf("exports/%s/%s/slide-%02d.svg", userID, carouselID, position+1)
}
