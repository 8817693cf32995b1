package ports

import (
	"context"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// RegisterIdentityInput carries the fields accepted at registration.
// ID may be zero to let the store assign one.
type RegisterIdentityInput struct {
	ID          int64
	ExternalID  int64
	DisplayName string
}

// IdentityService exposes identity management and the session lifecycle.
type IdentityService interface {
	Register(ctx context.Context, input RegisterIdentityInput) (*domain.Identity, error)
	Get(ctx context.Context, id int64) (*domain.Identity, error)
	GetByExternalID(ctx context.Context, externalID int64) (*domain.Identity, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.Identity, error)
	List(ctx context.Context) ([]*domain.Identity, error)
	Update(ctx context.Context, id int64, patch domain.IdentityPatch) (*domain.Identity, error)
	Delete(ctx context.Context, id int64) (*domain.Identity, error)

	Login(ctx context.Context, displayName string) (*domain.LoginAck, error)
	Verify(ctx context.Context, credential string) (*domain.SessionToken, error)
	Authenticate(ctx context.Context, authorizationHeader string) (*domain.IdentitySnapshot, error)
}
