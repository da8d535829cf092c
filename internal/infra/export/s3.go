package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mmrzaf/datasanitizer/internal/domain"
)

type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// objectStore is the part of *minio.Client the exporter uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// S3Exporter uploads snapshots to an S3-compatible bucket.
type S3Exporter struct {
	store  objectStore
	bucket string
	prefix string
	region string
	now    func() time.Time

	mu      sync.Mutex
	ensured bool
}

func NewS3Exporter(opts S3Options) (*S3Exporter, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, domain.Errorf(domain.InvalidArgument, "s3 exporter", "endpoint and bucket are required")
	}

	endpoint := opts.Endpoint
	useSSL := opts.UseSSL
	if u, err := url.Parse(opts.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: useSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, domain.NewError(domain.InvalidArgument, "s3 exporter", err)
	}
	return newS3Exporter(client, opts), nil
}

func newS3Exporter(store objectStore, opts S3Options) *S3Exporter {
	return &S3Exporter{
		store:  store,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		region: opts.Region,
		now:    time.Now,
	}
}

func (e *S3Exporter) Export(ctx context.Context, tableName string, rows []domain.Row) (string, error) {
	data, err := Encode(rows)
	if err != nil {
		return "", exportErr(err)
	}
	if err := e.ensureBucket(ctx); err != nil {
		return "", exportErr(err)
	}

	key, err := e.freeKey(ctx, tableName)
	if err != nil {
		return "", exportErr(err)
	}
	_, err = e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", exportErr(err)
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}

// freeKey picks an object key no earlier export used. Two exports of one
// table within the same second get distinct keys.
func (e *S3Exporter) freeKey(ctx context.Context, tableName string) (string, error) {
	base := ArtifactName(tableName, e.now())
	name := base
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		key := name
		if e.prefix != "" {
			key = path.Join(e.prefix, name)
		}
		_, err := e.store.StatObject(ctx, e.bucket, key, minio.StatObjectOptions{})
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				return key, nil
			}
			return "", err
		}
		name = withSuffix(base, uuid.NewString()[:8])
	}
	return "", fmt.Errorf("could not find a free object key for table %s", tableName)
}

func (e *S3Exporter) ensureBucket(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ensured {
		return nil
	}

	exists, err := e.store.BucketExists(ctx, e.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := e.store.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{Region: e.region}); err != nil {
			return err
		}
	}
	e.ensured = true
	return nil
}
