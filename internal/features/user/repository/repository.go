package repository

import (
	"context"
	"errors"

	"agrihub-backend/internal/features/user/models"
)

var ErrNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context) ([]*models.User, error)

	// SetChannels replaces the allow-list as a single-document merge;
	// concurrent writers race with last-write-wins semantics.
	SetChannels(ctx context.Context, uid string, channels []string) error
	SetRole(ctx context.Context, uid string, role models.Role) error
	SetLastSpinTime(ctx context.Context, uid string, ts int64) error

	// HasAdmin reports whether any stored profile already has the admin
	// role. Used to gate the bootstrap activation code.
	HasAdmin(ctx context.Context) (bool, error)
}
