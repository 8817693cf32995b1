package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func seededIdentity(repo *stubIdentityRepo, created time.Time) *domain.Identity {
	issued := created
	identity := &domain.Identity{
		ID:                 1,
		ExternalID:         555,
		DisplayName:        "alice",
		Role:               domain.RoleUser,
		CredentialHash:     "h:old",
		CredentialIssuedAt: &issued,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	repo.byID[identity.ID] = cloneIdentity(identity)
	return identity
}

func TestIdentityMerger_Rejections(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		patch domain.IdentityPatch
		want  error
		field string
	}{
		{name: "empty patch", patch: domain.IdentityPatch{}, want: domain.ErrEmptyUpdate},
		{name: "issued at alone", patch: domain.IdentityPatch{CredentialIssuedAt: &created}, want: domain.ErrEmptyUpdate},
		{name: "blank name", patch: domain.IdentityPatch{DisplayName: strPtr("")}, want: domain.ErrInvalidField, field: "username"},
		{name: "whitespace name", patch: domain.IdentityPatch{DisplayName: strPtr("   ")}, want: domain.ErrInvalidField, field: "username"},
		{name: "same name", patch: domain.IdentityPatch{DisplayName: strPtr("alice")}, want: domain.ErrNoChange, field: "username"},
		{name: "blank credential", patch: domain.IdentityPatch{CredentialHash: strPtr(" ")}, want: domain.ErrInvalidField, field: "credential"},
		{name: "same credential", patch: domain.IdentityPatch{CredentialHash: strPtr("h:old")}, want: domain.ErrNoChange, field: "credential"},
		{name: "blank role", patch: domain.IdentityPatch{Role: strPtr("")}, want: domain.ErrInvalidField, field: "role"},
		{name: "unknown role", patch: domain.IdentityPatch{Role: strPtr("SUPERUSER")}, want: domain.ErrInvalidRole},
		{name: "lowercase role", patch: domain.IdentityPatch{Role: strPtr("admin")}, want: domain.ErrInvalidRole},
		{name: "same role", patch: domain.IdentityPatch{Role: strPtr("USER")}, want: domain.ErrNoChange, field: "role"},
		{name: "valid name, bad role", patch: domain.IdentityPatch{DisplayName: strPtr("alicia"), Role: strPtr("ROOT")}, want: domain.ErrInvalidRole},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubIdentityRepo()
			existing := seededIdentity(repo, created)
			before := *existing
			m := NewIdentityMerger(repo, func() time.Time { return created.Add(time.Hour) })

			got, err := m.Apply(context.Background(), existing, tc.patch)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got != nil {
				t.Fatalf("expected nil identity on failure, got %+v", got)
			}
			if tc.field != "" {
				var fe *domain.FieldError
				if !errors.As(err, &fe) || fe.Field != tc.field {
					t.Fatalf("expected FieldError on %q, got %v", tc.field, err)
				}
			}
			if repo.saves != 0 {
				t.Fatalf("nothing must be saved on failure, got %d saves", repo.saves)
			}
			if existing.DisplayName != before.DisplayName || existing.Role != before.Role || !existing.UpdatedAt.Equal(before.UpdatedAt) {
				t.Fatalf("existing identity was modified: %+v", existing)
			}
		})
	}
}

func TestIdentityMerger_AppliesAllFields(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(2 * time.Hour)
	repo := newStubIdentityRepo()
	existing := seededIdentity(repo, created)
	m := NewIdentityMerger(repo, func() time.Time { return now })

	got, err := m.Apply(context.Background(), existing, domain.IdentityPatch{
		DisplayName:    strPtr("alicia"),
		CredentialHash: strPtr("h:new"),
		Role:           strPtr("ADMIN"),
	})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got.DisplayName != "alicia" || got.Role != domain.RoleAdmin || got.CredentialHash != "h:new" {
		t.Fatalf("fields not applied: %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %v, got %v", now, got.UpdatedAt)
	}
	if got.CredentialIssuedAt == nil || !got.CredentialIssuedAt.Equal(now) {
		t.Fatalf("credential issue time should default to now, got %v", got.CredentialIssuedAt)
	}
	if !got.CreatedAt.Equal(created) || got.ID != 1 || got.ExternalID != 555 {
		t.Fatalf("immutable fields changed: %+v", got)
	}

	stored := repo.byID[1]
	if stored.DisplayName != "alicia" || stored.Role != domain.RoleAdmin {
		t.Fatalf("update not persisted: %+v", stored)
	}
	if existing.DisplayName != "alice" {
		t.Fatalf("existing argument must not be mutated")
	}
}

func TestIdentityMerger_ExplicitIssueTime(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	issued := created.Add(30 * time.Minute)
	repo := newStubIdentityRepo()
	existing := seededIdentity(repo, created)
	m := NewIdentityMerger(repo, func() time.Time { return created.Add(time.Hour) })

	got, err := m.Apply(context.Background(), existing, domain.IdentityPatch{
		CredentialHash:     strPtr("h:new"),
		CredentialIssuedAt: &issued,
	})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if !got.CredentialIssuedAt.Equal(issued) {
		t.Fatalf("expected issue time %v, got %v", issued, got.CredentialIssuedAt)
	}
}

func TestIdentityMerger_SaveFailure(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newStubIdentityRepo()
	existing := seededIdentity(repo, created)
	storeErr := errors.New("connection reset")
	repo.saveErr = storeErr
	m := NewIdentityMerger(repo, nil)

	_, err := m.Apply(context.Background(), existing, domain.IdentityPatch{DisplayName: strPtr("alicia")})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}
