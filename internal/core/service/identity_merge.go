package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
	"github.com/clipcoins/clipcoins-api/internal/pkg/metrics"
)

// Field names reported in domain.FieldError.
const (
	fieldDisplayName = "username"
	fieldCredential  = "credential"
	fieldRole        = "role"
)

// IdentityMerger applies sparse patches to identities. It is the only path
// through which a stored identity is mutated, so every field rule lives here.
type IdentityMerger struct {
	repo ports.IdentityRepository
	now  func() time.Time
}

func NewIdentityMerger(repo ports.IdentityRepository, now func() time.Time) *IdentityMerger {
	if now == nil {
		now = time.Now
	}
	return &IdentityMerger{repo: repo, now: now}
}

// Apply validates every field set in patch against existing, then persists
// the merged record. existing is never modified; on any validation failure
// nothing is written.
func (m *IdentityMerger) Apply(ctx context.Context, existing *domain.Identity, patch domain.IdentityPatch) (*domain.Identity, error) {
	updated, err := m.merge(existing, patch)
	if err != nil {
		metrics.IdentityUpdatesTotal.WithLabelValues(rejectionKind(err)).Inc()
		return nil, err
	}

	if err := m.repo.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}
	metrics.IdentityUpdatesTotal.WithLabelValues("applied").Inc()
	return updated, nil
}

func (m *IdentityMerger) merge(existing *domain.Identity, patch domain.IdentityPatch) (*domain.Identity, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	now := m.now()
	updated := *existing

	if patch.DisplayName != nil {
		name := *patch.DisplayName
		if isBlank(name) {
			return nil, domain.InvalidField(fieldDisplayName)
		}
		if name == existing.DisplayName {
			return nil, domain.NoChange(fieldDisplayName)
		}
		updated.DisplayName = name
	}

	if patch.CredentialHash != nil {
		hash := *patch.CredentialHash
		if isBlank(hash) {
			return nil, domain.InvalidField(fieldCredential)
		}
		if hash == existing.CredentialHash {
			return nil, domain.NoChange(fieldCredential)
		}
		issuedAt := now
		if patch.CredentialIssuedAt != nil {
			issuedAt = *patch.CredentialIssuedAt
		}
		updated.CredentialHash = hash
		updated.CredentialIssuedAt = &issuedAt
	}

	if patch.Role != nil {
		if isBlank(*patch.Role) {
			return nil, domain.InvalidField(fieldRole)
		}
		role, err := domain.ParseRole(*patch.Role)
		if err != nil {
			return nil, err
		}
		if role == existing.Role {
			return nil, domain.NoChange(fieldRole)
		}
		updated.Role = role
	}

	updated.UpdatedAt = now
	return &updated, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func rejectionKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, domain.ErrNoChange):
		return "no_change"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrEmptyUpdate):
		return "empty"
	}
	return "error"
}
