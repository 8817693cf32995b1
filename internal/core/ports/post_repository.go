package ports

import (
	"context"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// PostRepository defines persistence operations for posts. Find returns
// domain.ErrPostNotFound when nothing matches.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context) ([]*domain.Post, error)
	Save(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id int64) error
}
