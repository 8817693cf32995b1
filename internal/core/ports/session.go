package ports

import (
	"context"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// CredentialGenerator produces unpredictable rotating credentials.
type CredentialGenerator interface {
	Generate() (string, error)
}

// CredentialHasher derives the at-rest digest of a credential.
type CredentialHasher interface {
	Hash(credential string) string
}

// TokenIssuer mints and checks signed session tokens.
type TokenIssuer interface {
	Issue(identity *domain.Identity) (*domain.SessionToken, error)
	Verify(token string) (*domain.IdentitySnapshot, error)
}

// CredentialDispatcher hands a fresh credential to the out-of-band channel.
type CredentialDispatcher interface {
	Enqueue(delivery domain.CredentialDelivery)
}

// CredentialNotifier writes one delivery to the out-of-band channel.
// It returns domain.ErrDuplicateDelivery for an issuance already sent.
type CredentialNotifier interface {
	Deliver(ctx context.Context, delivery domain.CredentialDelivery) error
}
