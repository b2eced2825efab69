// Package archive copies result artifacts of successful runs to an
// S3-compatible bucket so they survive the outpost work dir being cleaned.
package archive

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/testcentral/outpost/internal/config"
)

const defaultRegion = "us-east-1"

type Archiver struct {
	client *minio.Client
	bucket string
	region string
}

func Validate(cfg config.Archive) error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("archive endpoint is required")
	}
	if strings.Contains(cfg.Endpoint, "://") {
		return fmt.Errorf("archive endpoint must not include scheme: %q", cfg.Endpoint)
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return errors.New("archive access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return errors.New("archive bucket is required")
	}
	return nil
}

func NewArchiver(cfg config.Archive) (*Archiver, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating archive client: %w", err)
	}

	return &Archiver{client: client, bucket: cfg.Bucket, region: region}, nil
}

// EnsureBucket creates the bucket when missing.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	return a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
}

// Upload stores the artifact file under <silo>/<artifact>.
func (a *Archiver) Upload(ctx context.Context, silo, artifact, filePath string) error {
	key := ObjectKey(silo, artifact)

	info, err := a.client.FPutObject(ctx, a.bucket, key, filePath, minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	zap.S().Named("archive").Infow("result archived", "bucket", a.bucket, "key", key, "size", info.Size)
	return nil
}

func ObjectKey(silo, artifact string) string {
	return path.Join(silo, artifact)
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
