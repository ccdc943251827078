package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"agrihub-backend/internal/features/forum/models"
	"agrihub-backend/internal/features/forum/repository"
	"agrihub-backend/internal/platform/redis"
)

const (
	questionKeyPrefix = "question:"
	questionIndexKey  = "questions_by_created"
)

type questionRepository struct {
	client *redis.Client
}

func NewQuestionRepository(client *redis.Client) repository.QuestionRepository {
	return &questionRepository{client: client}
}

func questionKey(id string) string {
	return questionKeyPrefix + id
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, questionKey(question.ID), data, 0)
	pipe.ZAdd(ctx, questionIndexKey, goredis.Z{
		Score:  float64(question.CreatedAt),
		Member: question.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *questionRepository) Get(ctx context.Context, id string) (*models.Question, error) {
	data, err := r.client.Get(ctx, questionKey(id)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var question models.Question
	if err := json.Unmarshal(data, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, questionKey(question.ID), data, 0).Err()
}

func (r *questionRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, questionIndexKey, id)
	pipe.Del(ctx, questionKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *questionRepository) List(ctx context.Context) ([]*models.Question, error) {
	ids, err := r.client.ZRevRange(ctx, questionIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	questions := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		question, err := r.Get(ctx, id)
		if err != nil {
			continue
		}
		questions = append(questions, question)
	}
	return questions, nil
}
