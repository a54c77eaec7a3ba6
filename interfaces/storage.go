package interfaces

import "context"

// StorageService is a generic object-storage facade (S3 or R2-compatible),
// used by the EML index to persist raw message bytes.
type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	GetPublicURL(key string) string
}
