package repository

import (
	"context"
	"errors"

	"agrihub-backend/internal/features/feed/models"
)

var ErrNotFound = errors.New("article not found")

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Get(ctx context.Context, id string) (*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error

	// List returns articles ordered by creation timestamp descending.
	List(ctx context.Context) ([]*models.Article, error)

	IncrementViews(ctx context.Context, id string) error
}
