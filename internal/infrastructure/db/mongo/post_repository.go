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

const collectionPosts = "posts"

type PostRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		col: db.Collection(collectionPosts),
		seq: newSequence(db, collectionPosts),
	}
}

type postDoc struct {
	ID            int64     `bson:"_id"`
	AuthorID      int64     `bson:"author_id"`
	Title         string    `bson:"title"`
	Content       string    `bson:"content"`
	ImageURL      string    `bson:"image_url,omitempty"`
	LikesCount    int       `bson:"likes_count"`
	DislikesCount int       `bson:"dislikes_count"`
	ViewsCount    int       `bson:"views_count"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toPostDoc(p *domain.Post) postDoc {
	return postDoc{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Title:         p.Title,
		Content:       p.Content,
		ImageURL:      p.ImageURL,
		LikesCount:    p.LikesCount,
		DislikesCount: p.DislikesCount,
		ViewsCount:    p.ViewsCount,
		CreatedAt:     p.CreatedAt.UTC(),
		UpdatedAt:     p.UpdatedAt.UTC(),
	}
}

func (d postDoc) toDomain() *domain.Post {
	return &domain.Post{
		ID:            d.ID,
		AuthorID:      d.AuthorID,
		Title:         d.Title,
		Content:       d.Content,
		ImageURL:      d.ImageURL,
		LikesCount:    d.LikesCount,
		DislikesCount: d.DislikesCount,
		ViewsCount:    d.ViewsCount,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// Create inserts a new post document.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *p
	if created.ID == 0 {
		id, err := r.seq.next(ctx)
		if err != nil {
			return nil, err
		}
		created.ID = id
	} else if err := r.seq.advance(ctx, created.ID); err != nil {
		return nil, err
	}

	if _, err := r.col.InsertOne(ctx, toPostDoc(&created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &created, nil
}

// FindByID retrieves a post by id.
func (r *PostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc postDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns every post, newest first.
func (r *PostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	out := make([]*domain.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PostRepository) Save(ctx context.Context, p *domain.Post) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, toPostDoc(p))
	if err != nil {
		return fmt.Errorf("replace post: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the posts collection.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
