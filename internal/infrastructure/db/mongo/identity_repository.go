package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

const collectionIdentities = "identities"

// IdentityRepository implements ports.IdentityRepository using MongoDB.
type IdentityRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		col: db.Collection(collectionIdentities),
		seq: newSequence(db, collectionIdentities),
	}
}

type identityDoc struct {
	ID                 int64      `bson:"_id"`
	ExternalID         int64      `bson:"telegram_id"`
	DisplayName        string     `bson:"username"`
	Role               string     `bson:"role"`
	CredentialHash     string     `bson:"credential_hash,omitempty"`
	CredentialIssuedAt *time.Time `bson:"credential_issued_at,omitempty"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
}

func toIdentityDoc(i *domain.Identity) identityDoc {
	return identityDoc{
		ID:                 i.ID,
		ExternalID:         i.ExternalID,
		DisplayName:        i.DisplayName,
		Role:               i.Role.String(),
		CredentialHash:     i.CredentialHash,
		CredentialIssuedAt: utcPtr(i.CredentialIssuedAt),
		CreatedAt:          i.CreatedAt.UTC(),
		UpdatedAt:          i.UpdatedAt.UTC(),
	}
}

func (d identityDoc) toDomain() (*domain.Identity, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return nil, fmt.Errorf("identity %d: stored role %q: %w", d.ID, d.Role, err)
	}
	return &domain.Identity{
		ID:                 d.ID,
		ExternalID:         d.ExternalID,
		DisplayName:        d.DisplayName,
		Role:               role,
		CredentialHash:     d.CredentialHash,
		CredentialIssuedAt: utcPtr(d.CredentialIssuedAt),
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}, nil
}

// Create inserts a new identity document, drawing the id from the
// identities sequence when none is set.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *identity
	if created.ID == 0 {
		id, err := r.seq.next(ctx)
		if err != nil {
			return nil, err
		}
		created.ID = id
	} else if err := r.seq.advance(ctx, created.ID); err != nil {
		return nil, err
	}

	if _, err := r.col.InsertOne(ctx, toIdentityDoc(&created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return &created, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IdentityRepository) FindByExternalID(ctx context.Context, externalID int64) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"telegram_id": externalID})
}

func (r *IdentityRepository) FindByDisplayName(ctx context.Context, displayName string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"username": displayName})
}

func (r *IdentityRepository) FindByCredential(ctx context.Context, credentialHash string) (*domain.Identity, error) {
	if credentialHash == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOne(ctx, bson.M{"credential_hash": credentialHash})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toDomain()
}

// List returns every identity ordered by id.
func (r *IdentityRepository) List(ctx context.Context) ([]*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	var docs []identityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode identities: %w", err)
	}

	out := make([]*domain.Identity, 0, len(docs))
	for _, d := range docs {
		identity, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	return out, nil
}

// Save replaces the whole document. Concurrent saves of one identity are
// last-writer-wins.
func (r *IdentityRepository) Save(ctx context.Context, identity *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": identity.ID}, toIdentityDoc(identity))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("replace identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// EnsureIndexes creates the secondary-key indexes. telegram_id is unique;
// username is indexed for lookup only.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "telegram_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}},
		{Keys: bson.D{{Key: "credential_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
