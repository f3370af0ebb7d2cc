package contracts

import (
	"context"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
)

// UserCache is a read-through lookup for user identities, used on the
// relay's enrichment path where the same sender is resolved repeatedly.
// A cache miss falls through to the store; a cache failure is treated as
// a miss, never as an error.
type UserCache interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// BlobStore uploads message attachments and returns a public URL.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (url string, err error)
}

// Transactor runs fn inside a store transaction; repository calls made
// with the derived context share it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
