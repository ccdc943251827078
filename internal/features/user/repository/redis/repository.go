package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"agrihub-backend/internal/features/user/models"
	"agrihub-backend/internal/features/user/repository"
	"agrihub-backend/internal/platform/redis"
)

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user_email:"
)

type userRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func userKey(uid string) string {
	return userKeyPrefix + uid
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, userKey(user.UID), data, 0)
	if user.Email != "" {
		pipe.Set(ctx, emailKey(user.Email), user.UID, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	data, err := r.client.Get(ctx, userKey(uid)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	uid, err := r.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return r.GetByUID(ctx, uid)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = models.NowMillis()
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, userKey(user.UID), data, 0).Err()
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	user, err := r.GetByUID(ctx, uid)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, userKey(uid))
	if user.Email != "" {
		pipe.Del(ctx, emailKey(user.Email))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	iter := r.client.Scan(ctx, 0, userKeyPrefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}

		var user models.User
		if err := json.Unmarshal(data, &user); err != nil {
			continue
		}
		users = append(users, &user)
	}

	return users, iter.Err()
}

func (r *userRepository) SetChannels(ctx context.Context, uid string, channels []string) error {
	user, err := r.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	user.AllowedChannels = channels
	return r.Update(ctx, user)
}

func (r *userRepository) SetRole(ctx context.Context, uid string, role models.Role) error {
	user, err := r.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	user.Role = role
	return r.Update(ctx, user)
}

func (r *userRepository) SetLastSpinTime(ctx context.Context, uid string, ts int64) error {
	user, err := r.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	user.LastSpinTime = ts
	return r.Update(ctx, user)
}

func (r *userRepository) HasAdmin(ctx context.Context) (bool, error) {
	users, err := r.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}
