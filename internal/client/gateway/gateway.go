package gateway

import (
	"context"
	"time"

	common_models "litterbugs/internal/common/models"
)

// Gateway is the client's view of the hosted row and object store. Every
// method is a suspension point; failures are classified with the sentinels
// in common_models (ErrValidation, ErrPermission, ErrNotFound, ErrTransient,
// ErrUpload).
type Gateway interface {
	ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error)
	Insert(ctx context.Context, payload common_models.CreatePayload) (*common_models.Report, error)
	Update(ctx context.Context, id string, payload common_models.UpdatePayload) (*common_models.Report, error)
	Delete(ctx context.Context, id string) error
	UploadBlob(ctx context.Context, path string, data []byte, contentType string) error
	SignedReadURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
