package ports

import (
	"context"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// CreatePostInput carries the fields of a new post. ID may be zero.
type CreatePostInput struct {
	ID       int64
	AuthorID int64
	Title    string
	Content  string
	ImageURL string
}

// PostService defines use-case operations for posts.
type PostService interface {
	Create(ctx context.Context, input CreatePostInput) (*domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context) ([]*domain.Post, error)
	Update(ctx context.Context, id int64, patch domain.PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, id int64) (*domain.Post, error)
}
