package expense

import (
	"context"
	"io"
	"time"
)

// AttachmentStorage stores claim attachment blobs. The claim aggregate only
// carries references; the blob lives behind this interface (S3-compatible
// object storage in production, an in-memory stub in tests).
type AttachmentStorage interface {
	// Put stores a blob and returns its storage path.
	Put(ctx context.Context, tenantID string, fileName string, contentType string, body io.Reader) (string, error)

	// PresignGet returns a time-limited URL for downloading a stored blob.
	PresignGet(ctx context.Context, storagePath string, expiry time.Duration) (string, error)

	// Delete removes a stored blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, storagePath string) error
}
