package ports

import (
	"context"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// IdentityRepository is the durable identity store. Every Find method
// returns domain.ErrIdentityNotFound when nothing matches; any other error
// means the store itself failed.
type IdentityRepository interface {
	// Create inserts a new identity, assigning the next id when ID is zero.
	// A duplicate id or external id yields domain.ErrConflict.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
	FindByExternalID(ctx context.Context, externalID int64) (*domain.Identity, error)
	FindByDisplayName(ctx context.Context, displayName string) (*domain.Identity, error)
	// FindByCredential looks an identity up by the digest of its credential.
	FindByCredential(ctx context.Context, credentialHash string) (*domain.Identity, error)
	List(ctx context.Context) ([]*domain.Identity, error)
	// Save fully overwrites the stored record with the same id.
	Save(ctx context.Context, identity *domain.Identity) error
	Delete(ctx context.Context, id int64) error
}
