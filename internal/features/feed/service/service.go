package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/logger"
	"agrihub-backend/internal/common/optimistic"
	"agrihub-backend/internal/common/validation"
	"agrihub-backend/internal/features/feed/models"
	"agrihub-backend/internal/features/feed/repository"
	usermodels "agrihub-backend/internal/features/user/models"
)

const (
	listCacheKey         = "articles:list"
	approvedListCacheKey = "articles:list:approved"
	listCacheTTL         = 2 * time.Minute
)

// Author is the denormalized author snapshot written into each article.
type Author struct {
	UID         string
	DisplayName string
	Role        usermodels.Role
}

type FeedService interface {
	Create(ctx context.Context, author Author, req *models.CreateArticleRequest) (*models.Article, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Update(ctx context.Context, id string, caller Author, req *models.UpdateArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, id string, caller Author) error
	List(ctx context.Context, includeUnapproved bool) ([]*models.Article, error)

	IncrementViews(ctx context.Context, id string)
	ToggleLike(ctx context.Context, id, userUID string) (*models.Article, error)
	AddComment(ctx context.Context, id string, author Author, text string) (*models.Article, error)
	DeleteComment(ctx context.Context, id, commentID string, caller Author) (*models.Article, error)
	SetStatus(ctx context.Context, id string, status models.ArticleStatus) (*models.Article, error)
}

// ListCache is the slice of the shared cache service the feed uses for its
// list endpoints.
type ListCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error
	InvalidateArticles(ctx context.Context) error
}

type feedService struct {
	repo  repository.ArticleRepository
	cache ListCache

	// Per-article local views; likes and comments are applied here before
	// the store write and reverted when the write fails.
	views *optimistic.Views[models.Article]
}

func NewFeedService(repo repository.ArticleRepository, listCache ListCache) FeedService {
	return &feedService{
		repo:  repo,
		cache: listCache,
		views: optimistic.NewViews[models.Article](),
	}
}

func marketplaceType(t models.ArticleType) bool {
	return t == models.TypeMarketSell || t == models.TypeMarketBuy
}

func (s *feedService) Create(ctx context.Context, author Author, req *models.CreateArticleRequest) (*models.Article, error) {
	if err := validation.ValidateTitle(req.Title); err != nil {
		return nil, apperrors.NewValidationError("title", err.Error())
	}
	if err := validation.ValidateContent(req.Content); err != nil {
		return nil, apperrors.NewValidationError("content", err.Error())
	}

	articleType := req.Type
	if articleType == "" {
		articleType = models.TypeOfficial
	}

	// Regular members may only post marketplace listings, and those start
	// unapproved. Staff posts go live immediately.
	status := models.StatusApproved
	if !author.Role.Staff() {
		if !marketplaceType(articleType) {
			return nil, apperrors.NewForbiddenError("members can only create marketplace listings")
		}
		status = models.StatusPending
	}

	now := usermodels.NowMillis()
	article := &models.Article{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Category:     req.Category,
		Type:         articleType,
		Summary:      req.Summary,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		Author:       author.DisplayName,
		AuthorID:     author.UID,
		AuthorRole:   author.Role,
		Date:         time.UnixMilli(now).Format("2006-01-02"),
		Tags:         req.Tags,
		Likes:        []string{},
		Comments:     []models.Comment{},
		Price:        req.Price,
		Location:     req.Location,
		ContactPhone: req.ContactPhone,
		Status:       status,
		CreatedAt:    now,
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, apperrors.NewStoreError("create article", err)
	}
	s.invalidateLists(ctx)
	return article, nil
}

func (s *feedService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("article", id)
		}
		return nil, apperrors.NewStoreError("get article", err)
	}
	return article, nil
}

func (s *feedService) Update(ctx context.Context, id string, caller Author, req *models.UpdateArticleRequest) (*models.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != caller.UID && caller.Role != usermodels.RoleAdmin {
		return nil, apperrors.NewForbiddenError("only the author or an admin can edit an article")
	}

	if req.Title != "" {
		if err := validation.ValidateTitle(req.Title); err != nil {
			return nil, apperrors.NewValidationError("title", err.Error())
		}
		article.Title = req.Title
	}
	if req.Content != "" {
		if err := validation.ValidateContent(req.Content); err != nil {
			return nil, apperrors.NewValidationError("content", err.Error())
		}
		article.Content = req.Content
	}
	if req.Summary != "" {
		article.Summary = req.Summary
	}
	if req.ImageURL != "" {
		article.ImageURL = req.ImageURL
	}
	if req.Tags != nil {
		article.Tags = req.Tags
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, apperrors.NewStoreError("update article", err)
	}
	s.views.Drop(id)
	s.invalidateLists(ctx)
	return article, nil
}

func (s *feedService) Delete(ctx context.Context, id string, caller Author) error {
	article, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if article.AuthorID != caller.UID && caller.Role != usermodels.RoleAdmin {
		return apperrors.NewForbiddenError("only the author or an admin can delete an article")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.NewStoreError("delete article", err)
	}
	s.views.Drop(id)
	s.invalidateLists(ctx)
	return nil
}

func (s *feedService) List(ctx context.Context, includeUnapproved bool) ([]*models.Article, error) {
	key := approvedListCacheKey
	if includeUnapproved {
		key = listCacheKey
	}

	var articles []*models.Article
	err := s.cache.GetOrSet(ctx, key, &articles, listCacheTTL, func() (interface{}, error) {
		all, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if includeUnapproved {
			return all, nil
		}
		approved := make([]*models.Article, 0, len(all))
		for _, a := range all {
			if a.Status == models.StatusApproved {
				approved = append(approved, a)
			}
		}
		return approved, nil
	})
	if err != nil {
		return nil, apperrors.NewStoreError("list articles", err)
	}
	return articles, nil
}

// IncrementViews bumps the counter best-effort; a failed bump never breaks
// the read path.
func (s *feedService) IncrementViews(ctx context.Context, id string) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		logger.Warn().Err(err).Str("article_id", id).Msg("Failed to increment article views")
	}
}

func (s *feedService) articleView(ctx context.Context, id string) (*optimistic.View[models.Article], error) {
	view, err := s.views.Ensure(id, func() (models.Article, error) {
		article, err := s.repo.Get(ctx, id)
		if err != nil {
			return models.Article{}, err
		}
		return *article, nil
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("article", id)
		}
		return nil, apperrors.NewStoreError("load article", err)
	}
	return view, nil
}

func toggleLike(likes []string, userUID string) []string {
	out := make([]string, 0, len(likes)+1)
	found := false
	for _, uid := range likes {
		if uid == userUID {
			found = true
			continue
		}
		out = append(out, uid)
	}
	if !found {
		out = append(out, userUID)
	}
	return out
}

func (s *feedService) ToggleLike(ctx context.Context, id, userUID string) (*models.Article, error) {
	view, err := s.articleView(ctx, id)
	if err != nil {
		return nil, err
	}

	// The toggle is computed inside Apply, under the view lock, so two
	// concurrent toggles are two ordered flips over the live snapshot rather
	// than two copies of the same stale base.
	var next models.Article
	err = optimistic.Do(ctx, view, optimistic.Mutation[models.Article]{
		Apply: func(cur models.Article) models.Article {
			cur.Likes = toggleLike(cur.Likes, userUID)
			next = cur
			return cur
		},
		Write: func(ctx context.Context) error {
			return s.repo.Update(ctx, &next)
		},
		// Revert so a failed write does not leave a phantom like.
		Policy: optimistic.Revert,
	})
	if err != nil {
		return nil, apperrors.NewStoreError("toggle like", err)
	}
	s.invalidateLists(ctx)
	return &next, nil
}

func (s *feedService) AddComment(ctx context.Context, id string, author Author, text string) (*models.Article, error) {
	if err := validation.ValidateMessageText(text); err != nil {
		return nil, apperrors.NewValidationError("text", err.Error())
	}

	view, err := s.articleView(ctx, id)
	if err != nil {
		return nil, err
	}

	name := author.DisplayName
	if name == "" {
		name = "Member"
	}
	comment := models.Comment{
		ID:        uuid.New().String(),
		UserID:    author.UID,
		UserName:  name,
		Text:      text,
		CreatedAt: usermodels.NowMillis(),
	}

	var next models.Article
	err = optimistic.Do(ctx, view, optimistic.Mutation[models.Article]{
		Apply: func(cur models.Article) models.Article {
			comments := make([]models.Comment, 0, len(cur.Comments)+1)
			comments = append(comments, cur.Comments...)
			cur.Comments = append(comments, comment)
			next = cur
			return cur
		},
		Write: func(ctx context.Context) error {
			return s.repo.Update(ctx, &next)
		},
		Policy: optimistic.Revert,
	})
	if err != nil {
		return nil, apperrors.NewStoreError("add comment", err)
	}
	s.invalidateLists(ctx)
	return &next, nil
}

func (s *feedService) DeleteComment(ctx context.Context, id, commentID string, caller Author) (*models.Article, error) {
	view, err := s.articleView(ctx, id)
	if err != nil {
		return nil, err
	}

	// The lookup runs inside Apply so the ownership check and the removal see
	// the same live snapshot; a denied or missing comment leaves the view
	// untouched and skips the write.
	var (
		next      models.Article
		found     bool
		forbidden bool
	)
	err = optimistic.Do(ctx, view, optimistic.Mutation[models.Article]{
		Apply: func(cur models.Article) models.Article {
			comments := make([]models.Comment, 0, len(cur.Comments))
			for _, c := range cur.Comments {
				if c.ID == commentID {
					if c.UserID != caller.UID && caller.Role != usermodels.RoleAdmin {
						forbidden = true
						return cur
					}
					found = true
					continue
				}
				comments = append(comments, c)
			}
			if !found {
				return cur
			}
			cur.Comments = comments
			next = cur
			return cur
		},
		Write: func(ctx context.Context) error {
			if forbidden || !found {
				return nil
			}
			return s.repo.Update(ctx, &next)
		},
		Policy: optimistic.Revert,
	})
	if err != nil {
		return nil, apperrors.NewStoreError("delete comment", err)
	}
	if forbidden {
		return nil, apperrors.NewForbiddenError("only the author or an admin can delete a comment")
	}
	if !found {
		return nil, apperrors.NewNotFoundError("comment", commentID)
	}
	s.invalidateLists(ctx)
	return &next, nil
}

// SetStatus moderates a marketplace listing or post.
func (s *feedService) SetStatus(ctx context.Context, id string, status models.ArticleStatus) (*models.Article, error) {
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		return nil, apperrors.NewValidationError("status", "must be pending, approved or rejected")
	}

	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Status = status

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, apperrors.NewStoreError("set article status", err)
	}
	s.views.Drop(id)
	s.invalidateLists(ctx)
	return article, nil
}

func (s *feedService) invalidateLists(ctx context.Context) {
	if err := s.cache.InvalidateArticles(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate article list cache")
	}
}
