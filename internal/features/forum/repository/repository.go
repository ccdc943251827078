package repository

import (
	"context"
	"errors"

	"agrihub-backend/internal/features/forum/models"
)

var ErrNotFound = errors.New("question not found")

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	Get(ctx context.Context, id string) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error

	// List returns questions ordered by creation timestamp descending.
	List(ctx context.Context) ([]*models.Question, error)
}
