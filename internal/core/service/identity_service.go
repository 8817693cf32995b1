package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
	"github.com/clipcoins/clipcoins-api/internal/core/token"
	"github.com/clipcoins/clipcoins-api/internal/pkg/metrics"
)

// DeliveryChannel names the out-of-band channel credentials are sent over.
const DeliveryChannel = "telegram"

// IdentityService implements identity management and the session lifecycle:
// login requests rotate a stale credential and dispatch it out of band,
// verification exchanges a fresh credential for a signed session token.
type IdentityService struct {
	repo          ports.IdentityRepository
	merger        *IdentityMerger
	generator     ports.CredentialGenerator
	hasher        ports.CredentialHasher
	tokens        ports.TokenIssuer
	dispatcher    ports.CredentialDispatcher
	credentialTTL time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

// IdentityOption configures an IdentityService.
type IdentityOption func(*IdentityService)

// WithClock overrides the service time source.
func WithClock(now func() time.Time) IdentityOption {
	return func(s *IdentityService) { s.now = now }
}

// WithCredentialTTL overrides domain.CredentialTTL.
func WithCredentialTTL(ttl time.Duration) IdentityOption {
	return func(s *IdentityService) {
		if ttl > 0 {
			s.credentialTTL = ttl
		}
	}
}

func NewIdentityService(
	repo ports.IdentityRepository,
	generator ports.CredentialGenerator,
	hasher ports.CredentialHasher,
	tokens ports.TokenIssuer,
	dispatcher ports.CredentialDispatcher,
	logger zerolog.Logger,
	opts ...IdentityOption,
) *IdentityService {
	s := &IdentityService{
		repo:          repo,
		generator:     generator,
		hasher:        hasher,
		tokens:        tokens,
		dispatcher:    dispatcher,
		credentialTTL: domain.CredentialTTL,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.merger = NewIdentityMerger(repo, s.now)
	return s
}

// Register creates a new identity with role USER and no credential.
func (s *IdentityService) Register(ctx context.Context, input ports.RegisterIdentityInput) (*domain.Identity, error) {
	if isBlank(input.DisplayName) {
		return nil, domain.InvalidField(fieldDisplayName)
	}
	if input.ID < 0 {
		return nil, domain.InvalidField("id")
	}
	if input.ExternalID < 0 {
		return nil, domain.InvalidField("telegram_id")
	}

	if input.ID != 0 {
		if err := s.ensureAbsent(s.repo.FindByID(ctx, input.ID)); err != nil {
			return nil, err
		}
	}
	if err := s.ensureAbsent(s.repo.FindByExternalID(ctx, input.ExternalID)); err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Identity{
		ID:          input.ID,
		ExternalID:  input.ExternalID,
		DisplayName: input.DisplayName,
		Role:        domain.RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("identity_id", created.ID).
		Int64("telegram_id", created.ExternalID).
		Msg("identity registered")
	return created, nil
}

// ensureAbsent turns a successful lookup into ErrConflict and a miss into nil.
func (s *IdentityService) ensureAbsent(_ *domain.Identity, err error) error {
	switch {
	case err == nil:
		return domain.ErrConflict
	case errors.Is(err, domain.ErrIdentityNotFound):
		return nil
	default:
		return err
	}
}

func (s *IdentityService) Get(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *IdentityService) GetByExternalID(ctx context.Context, externalID int64) (*domain.Identity, error) {
	return s.repo.FindByExternalID(ctx, externalID)
}

func (s *IdentityService) GetByDisplayName(ctx context.Context, displayName string) (*domain.Identity, error) {
	return s.repo.FindByDisplayName(ctx, displayName)
}

func (s *IdentityService) List(ctx context.Context) ([]*domain.Identity, error) {
	return s.repo.List(ctx)
}

// Update applies a sparse patch to the identity with the given id.
func (s *IdentityService) Update(ctx context.Context, id int64, patch domain.IdentityPatch) (*domain.Identity, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.merger.Apply(ctx, existing, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("identity_id", id).Msg("identity updated")
	return updated, nil
}

// Delete removes the identity and returns its last stored state.
func (s *IdentityService) Delete(ctx context.Context, id int64) (*domain.Identity, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete identity: %w", err)
	}

	s.logger.Info().Int64("identity_id", id).Msg("identity deleted")
	return existing, nil
}

// Login rotates the credential of displayName when it is missing or stale
// and dispatches the new one. A fresh credential is left untouched; the
// acknowledgement is the same in both cases.
func (s *IdentityService) Login(ctx context.Context, displayName string) (*domain.LoginAck, error) {
	identity, err := s.repo.FindByDisplayName(ctx, displayName)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	now := s.now()
	if identity.CredentialStale(now, s.credentialTTL) {
		if _, err := s.rotate(ctx, identity, "login"); err != nil {
			return nil, err
		}
	} else {
		s.logger.Debug().Int64("identity_id", identity.ID).Msg("credential still fresh, rotation skipped")
	}

	metrics.LoginsTotal.WithLabelValues("accepted").Inc()
	return &domain.LoginAck{
		DisplayName: identity.DisplayName,
		Channel:     DeliveryChannel,
		AcceptedAt:  now,
	}, nil
}

// Verify exchanges a fresh credential for a session token.
//
// A stale credential is rotated before ErrCredentialExpired is returned, so
// the presented value can never be accepted later. This makes Verify a
// mutating call even when it fails.
func (s *IdentityService) Verify(ctx context.Context, credential string) (*domain.SessionToken, error) {
	if isBlank(credential) {
		metrics.VerificationsTotal.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrUnauthorized
	}

	identity, err := s.repo.FindByCredential(ctx, s.hasher.Hash(credential))
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			metrics.VerificationsTotal.WithLabelValues("unauthorized").Inc()
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if identity.CredentialStale(s.now(), s.credentialTTL) {
		if _, err := s.rotate(ctx, identity, "stale"); err != nil {
			return nil, err
		}
		metrics.VerificationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrCredentialExpired
	}

	tok, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}

	metrics.VerificationsTotal.WithLabelValues("issued").Inc()
	s.logger.Info().Int64("identity_id", identity.ID).Msg("session token issued")
	return tok, nil
}

// Authenticate verifies the bearer token in an Authorization header value.
// Every failure wraps domain.ErrUnauthenticated together with its cause.
func (s *IdentityService) Authenticate(_ context.Context, authorizationHeader string) (*domain.IdentitySnapshot, error) {
	raw, ok := token.ExtractFromHeader(authorizationHeader)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	snap, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return snap, nil
}

// rotate generates a new credential, stores its digest through the merger
// and hands the plaintext to the dispatcher.
func (s *IdentityService) rotate(ctx context.Context, identity *domain.Identity, reason string) (*domain.Identity, error) {
	code, err := s.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("rotate credential: %w", err)
	}

	hash := s.hasher.Hash(code)
	issuedAt := s.now()
	updated, err := s.merger.Apply(ctx, identity, domain.IdentityPatch{
		CredentialHash:     &hash,
		CredentialIssuedAt: &issuedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("rotate credential: %w", err)
	}

	s.dispatcher.Enqueue(domain.CredentialDelivery{
		ExternalID:  updated.ExternalID,
		DisplayName: updated.DisplayName,
		Code:        code,
		IssuedAt:    issuedAt,
	})

	metrics.CredentialRotationsTotal.WithLabelValues(reason).Inc()
	s.logger.Info().
		Int64("identity_id", updated.ID).
		Str("reason", reason).
		Msg("credential rotated")
	return updated, nil
}
