package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory identity repository
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	byID    map[int64]*domain.Identity
	nextID  int64
	saves   int
	findErr error // if set, every Find returns this error
	saveErr error // if set, Save returns this error
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byID: make(map[int64]*domain.Identity), nextID: 1}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	if i == nil {
		return nil
	}
	clone := *i
	if i.CredentialIssuedAt != nil {
		at := *i.CredentialIssuedAt
		clone.CredentialIssuedAt = &at
	}
	return &clone
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	stored := cloneIdentity(identity)
	if stored.ID == 0 {
		stored.ID = r.nextID
	}
	if _, exists := r.byID[stored.ID]; exists {
		return nil, domain.ErrConflict
	}
	if stored.ID >= r.nextID {
		r.nextID = stored.ID + 1
	}
	r.byID[stored.ID] = stored
	return cloneIdentity(stored), nil
}

func (r *stubIdentityRepo) find(match func(*domain.Identity) bool) (*domain.Identity, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, i := range r.byID {
		if match(i) {
			return cloneIdentity(i), nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id int64) (*domain.Identity, error) {
	return r.find(func(i *domain.Identity) bool { return i.ID == id })
}

func (r *stubIdentityRepo) FindByExternalID(_ context.Context, externalID int64) (*domain.Identity, error) {
	return r.find(func(i *domain.Identity) bool { return i.ExternalID == externalID })
}

func (r *stubIdentityRepo) FindByDisplayName(_ context.Context, name string) (*domain.Identity, error) {
	return r.find(func(i *domain.Identity) bool { return i.DisplayName == name })
}

func (r *stubIdentityRepo) FindByCredential(_ context.Context, hash string) (*domain.Identity, error) {
	return r.find(func(i *domain.Identity) bool { return i.CredentialHash != "" && i.CredentialHash == hash })
}

func (r *stubIdentityRepo) List(_ context.Context) ([]*domain.Identity, error) {
	out := make([]*domain.Identity, 0, len(r.byID))
	for _, i := range r.byID {
		out = append(out, cloneIdentity(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r *stubIdentityRepo) Save(_ context.Context, identity *domain.Identity) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.byID[identity.ID] = cloneIdentity(identity)
	return nil
}

func (r *stubIdentityRepo) Delete(_ context.Context, id int64) error {
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Credential, clock and dispatcher stubs
// ---------------------------------------------------------------------------

// seqGenerator returns code-1, code-2, ...
type seqGenerator struct {
	n   int
	err error
}

func (g *seqGenerator) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.n++
	return fmt.Sprintf("code-%d", g.n), nil
}

// prefixHasher makes digests readable in assertions.
type prefixHasher struct{}

func (prefixHasher) Hash(credential string) string { return "h:" + credential }

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingDispatcher struct {
	deliveries []domain.CredentialDelivery
}

func (d *recordingDispatcher) Enqueue(delivery domain.CredentialDelivery) {
	d.deliveries = append(d.deliveries, delivery)
}

func (d *recordingDispatcher) last() domain.CredentialDelivery {
	return d.deliveries[len(d.deliveries)-1]
}

var _ ports.IdentityRepository = (*stubIdentityRepo)(nil)
var _ ports.CredentialDispatcher = (*recordingDispatcher)(nil)
