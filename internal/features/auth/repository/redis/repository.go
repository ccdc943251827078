package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"agrihub-backend/internal/features/auth/models"
	"agrihub-backend/internal/features/auth/repository"
	"agrihub-backend/internal/platform/redis"
)

const (
	codeKeyPrefix    = "product_code:"
	sessionKeyPrefix = "session:"
	resetKeyPrefix   = "reset_token:"

	sessionTTL = 30 * 24 * time.Hour
)

type codeRepository struct {
	client *redis.Client
}

func NewCodeRepository(client *redis.Client) repository.CodeRepository {
	return &codeRepository{client: client}
}

func (r *codeRepository) Get(ctx context.Context, code string) (*models.ProductCode, error) {
	data, err := r.client.Get(ctx, codeKeyPrefix+code).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrCodeNotFound
		}
		return nil, err
	}

	var pc models.ProductCode
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *codeRepository) Create(ctx context.Context, code *models.ProductCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, codeKeyPrefix+code.Code, data, 0).Err()
}

func (r *codeRepository) MarkUsed(ctx context.Context, code, uid string) error {
	pc, err := r.Get(ctx, code)
	if err != nil {
		return err
	}
	pc.IsUsed = true
	pc.UsedBy = uid
	pc.UsedAt = time.Now().UnixMilli()
	return r.Create(ctx, pc)
}

func (r *codeRepository) List(ctx context.Context) ([]*models.ProductCode, error) {
	var codes []*models.ProductCode
	iter := r.client.Scan(ctx, 0, codeKeyPrefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}

		var pc models.ProductCode
		if err := json.Unmarshal(data, &pc); err != nil {
			continue
		}
		codes = append(codes, &pc)
	}

	return codes, iter.Err()
}

type sessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) repository.SessionRepository {
	return &sessionRepository{client: client}
}

func (r *sessionRepository) Save(ctx context.Context, rec *models.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKeyPrefix+rec.UID, data, sessionTTL).Err()
}

func (r *sessionRepository) Get(ctx context.Context, uid string) (*models.SessionRecord, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+uid).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrSessionNotFound
		}
		return nil, err
	}

	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, repository.ErrMalformedSession
	}
	return &rec, nil
}

func (r *sessionRepository) Delete(ctx context.Context, uid string) error {
	return r.client.Del(ctx, sessionKeyPrefix+uid).Err()
}

type resetTokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResetTokenRepository(client *redis.Client, ttl time.Duration) repository.ResetTokenRepository {
	return &resetTokenRepository{client: client, ttl: ttl}
}

func (r *resetTokenRepository) Save(ctx context.Context, token, uid string) error {
	return r.client.Set(ctx, resetKeyPrefix+token, uid, r.ttl).Err()
}

func (r *resetTokenRepository) Consume(ctx context.Context, token string) (string, error) {
	key := resetKeyPrefix + token
	uid, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", repository.ErrTokenNotFound
		}
		return "", err
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return "", err
	}
	return uid, nil
}
