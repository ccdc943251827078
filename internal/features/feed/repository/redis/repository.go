package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"agrihub-backend/internal/features/feed/models"
	"agrihub-backend/internal/features/feed/repository"
	"agrihub-backend/internal/platform/redis"
)

const (
	articleKeyPrefix = "article:"
	articleIndexKey  = "articles_by_created"
)

type articleRepository struct {
	client *redis.Client
}

func NewArticleRepository(client *redis.Client) repository.ArticleRepository {
	return &articleRepository{client: client}
}

func articleKey(id string) string {
	return articleKeyPrefix + id
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, articleKey(article.ID), data, 0)
	pipe.ZAdd(ctx, articleIndexKey, goredis.Z{
		Score:  float64(article.CreatedAt),
		Member: article.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *articleRepository) Get(ctx context.Context, id string) (*models.Article, error) {
	data, err := r.client.Get(ctx, articleKey(id)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var article models.Article
	if err := json.Unmarshal(data, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, articleKey(article.ID), data, 0).Err()
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, articleIndexKey, id)
	pipe.Del(ctx, articleKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *articleRepository) List(ctx context.Context) ([]*models.Article, error) {
	// Newest first.
	ids, err := r.client.ZRevRange(ctx, articleIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	articles := make([]*models.Article, 0, len(ids))
	for _, id := range ids {
		article, err := r.Get(ctx, id)
		if err != nil {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (r *articleRepository) IncrementViews(ctx context.Context, id string) error {
	article, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	article.Views++
	return r.Update(ctx, article)
}
