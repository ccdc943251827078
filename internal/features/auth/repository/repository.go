package repository

import (
	"context"
	"errors"

	"agrihub-backend/internal/features/auth/models"
)

var (
	ErrCodeNotFound    = errors.New("product code not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenNotFound   = errors.New("reset token not found")

	// ErrMalformedSession is returned when a cached session record fails to
	// parse. Callers treat it as "no session", not as a crash.
	ErrMalformedSession = errors.New("malformed session record")
)

type CodeRepository interface {
	Get(ctx context.Context, code string) (*models.ProductCode, error)
	Create(ctx context.Context, code *models.ProductCode) error
	MarkUsed(ctx context.Context, code, uid string) error
	List(ctx context.Context) ([]*models.ProductCode, error)
}

type SessionRepository interface {
	Save(ctx context.Context, rec *models.SessionRecord) error
	Get(ctx context.Context, uid string) (*models.SessionRecord, error)
	Delete(ctx context.Context, uid string) error
}

type ResetTokenRepository interface {
	// Save stores token -> uid with a TTL; tokens are single use.
	Save(ctx context.Context, token, uid string) error
	Consume(ctx context.Context, token string) (string, error)
}
