package receipts

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Storage keeps receipt files in a Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type Storage struct {
	client *storage.Client
	bucket string
}

func NewStorage(ctx context.Context, bucket string) (*Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStorage: create storage client: %w", err)
	}
	return &Storage{client: client, bucket: bucket}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// Upload writes r to receipts/<uuid>/<fileName> and returns its gs:// URI.
func (s *Storage) Upload(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
	object := ObjectName(uuid.NewString(), fileName)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Upload: copy to GCS writer: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Fetch downloads the bytes behind a gs:// URI.
func (s *Storage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// SignedURL returns a V4 signed GET URL for displaying a stored receipt.
func (s *Storage) SignedURL(uri string, ttl time.Duration) (string, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return "", err
	}
	u, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("SignedURL: %w", err)
	}
	return u, nil
}

// ParseGCSURI splits gs://bucket/path/to/file into bucket and object path.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ObjectName builds the object path for an upload. Directory parts of
// fileName are dropped.
func ObjectName(id, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "receipt"
	}
	return path.Join("receipts", id, name)
}
