package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
	"github.com/clipcoins/clipcoins-api/internal/pkg/metrics"
)

type PostService struct {
	repo       ports.PostRepository
	identities ports.IdentityRepository
	now        func() time.Time
	logger     zerolog.Logger
}

func NewPostService(repo ports.PostRepository, identities ports.IdentityRepository, logger zerolog.Logger) *PostService {
	return &PostService{repo: repo, identities: identities, now: time.Now, logger: logger}
}

// Create stores a new post for an existing author.
func (s *PostService) Create(ctx context.Context, input ports.CreatePostInput) (*domain.Post, error) {
	if isBlank(input.Title) {
		return nil, domain.InvalidField("title")
	}
	if isBlank(input.Content) {
		return nil, domain.InvalidField("content")
	}
	if input.ID < 0 {
		return nil, domain.InvalidField("id")
	}

	if _, err := s.identities.FindByID(ctx, input.AuthorID); err != nil {
		return nil, err
	}
	if input.ID != 0 {
		_, err := s.repo.FindByID(ctx, input.ID)
		if err == nil {
			return nil, domain.ErrConflict
		}
		if !errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Post{
		ID:        input.ID,
		AuthorID:  input.AuthorID,
		Title:     input.Title,
		Content:   input.Content,
		ImageURL:  input.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create post")
		return nil, err
	}

	metrics.PostsCreatedTotal.Inc()
	s.logger.Info().Int64("post_id", created.ID).Int64("author_id", created.AuthorID).Msg("post created")
	return created, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PostService) List(ctx context.Context) ([]*domain.Post, error) {
	return s.repo.List(ctx)
}

// Update applies a sparse patch. Unlike identities, resubmitting the current
// value of a field is accepted.
func (s *PostService) Update(ctx context.Context, id int64, patch domain.PostPatch) (*domain.Post, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *post
	for _, f := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"title", patch.Title, &updated.Title},
		{"content", patch.Content, &updated.Content},
		{"image_url", patch.ImageURL, &updated.ImageURL},
	} {
		if f.value == nil {
			continue
		}
		if isBlank(*f.value) {
			return nil, domain.InvalidField(f.name)
		}
		*f.dst = *f.value
	}
	updated.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	return &updated, nil
}

// Delete removes the post and returns its last stored state.
func (s *PostService) Delete(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info().Int64("post_id", id).Msg("post deleted")
	return post, nil
}
