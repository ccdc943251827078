package service

import (
	"context"

	"github.com/google/uuid"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/optimistic"
	"agrihub-backend/internal/common/validation"
	"agrihub-backend/internal/features/forum/models"
	"agrihub-backend/internal/features/forum/repository"
	usermodels "agrihub-backend/internal/features/user/models"
)

// Participant is the denormalized author snapshot written into questions
// and answers.
type Participant struct {
	UID         string
	DisplayName string
	Role        usermodels.Role
}

type ForumService interface {
	Create(ctx context.Context, author Participant, req *models.CreateQuestionRequest) (*models.Question, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context) ([]*models.Question, error)
	Delete(ctx context.Context, id string, caller Participant) error

	AddAnswer(ctx context.Context, questionID string, author Participant, text string) (*models.Question, error)
	DeleteAnswer(ctx context.Context, questionID, answerID string, caller Participant) (*models.Question, error)
	ToggleLike(ctx context.Context, questionID, userUID string) (*models.Question, error)
	Resolve(ctx context.Context, questionID string, caller Participant) (*models.Question, error)
}

type forumService struct {
	repo repository.QuestionRepository

	// Per-question local views; likes and answers are applied here before
	// the store write and reverted when the write fails.
	views *optimistic.Views[models.Question]
}

func NewForumService(repo repository.QuestionRepository) ForumService {
	return &forumService{
		repo:  repo,
		views: optimistic.NewViews[models.Question](),
	}
}

func (s *forumService) Create(ctx context.Context, author Participant, req *models.CreateQuestionRequest) (*models.Question, error) {
	if err := validation.ValidateTitle(req.Title); err != nil {
		return nil, apperrors.NewValidationError("title", err.Error())
	}
	if err := validation.ValidateContent(req.Content); err != nil {
		return nil, apperrors.NewValidationError("content", err.Error())
	}

	name := author.DisplayName
	if name == "" {
		name = "Member"
	}

	question := &models.Question{
		ID:         uuid.New().String(),
		Title:      req.Title,
		Content:    req.Content,
		AuthorID:   author.UID,
		AuthorName: name,
		Tags:       req.Tags,
		Likes:      []string{},
		Answers:    []models.Answer{},
		CreatedAt:  usermodels.NowMillis(),
	}

	if err := s.repo.Create(ctx, question); err != nil {
		return nil, apperrors.NewStoreError("create question", err)
	}
	return question, nil
}

func (s *forumService) Get(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("question", id)
		}
		return nil, apperrors.NewStoreError("get question", err)
	}
	return question, nil
}

func (s *forumService) List(ctx context.Context) ([]*models.Question, error) {
	questions, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list questions", err)
	}
	return questions, nil
}

func (s *forumService) Delete(ctx context.Context, id string, caller Participant) error {
	question, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if question.AuthorID != caller.UID && caller.Role != usermodels.RoleAdmin {
		return apperrors.NewForbiddenError("only the author or an admin can delete a question")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.NewStoreError("delete question", err)
	}
	s.views.Drop(id)
	return nil
}

func (s *forumService) questionView(ctx context.Context, id string) (*optimistic.View[models.Question], error) {
	view, err := s.views.Ensure(id, func() (models.Question, error) {
		question, err := s.repo.Get(ctx, id)
		if err != nil {
			return models.Question{}, err
		}
		return *question, nil
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("question", id)
		}
		return nil, apperrors.NewStoreError("load question", err)
	}
	return view, nil
}

func (s *forumService) AddAnswer(ctx context.Context, questionID string, author Participant, text string) (*models.Question, error) {
	if err := validation.ValidateMessageText(text); err != nil {
		return nil, apperrors.NewValidationError("text", err.Error())
	}

	view, err := s.questionView(ctx, questionID)
	if err != nil {
		return nil, err
	}

	name := author.DisplayName
	if name == "" {
		name = "Member"
	}
	answer := models.Answer{
		ID:        uuid.New().String(),
		UserID:    author.UID,
		UserName:  name,
		UserRole:  author.Role,
		Text:      text,
		CreatedAt: usermodels.NowMillis(),
	}

	// Appending inside Apply serializes concurrent answers on the view, so
	// neither overwrites the other's append.
	var next models.Question
	err = optimistic.Do(ctx, view, optimistic.Mutation[models.Question]{
		Apply: func(cur models.Question) models.Question {
			answers := make([]models.Answer, 0, len(cur.Answers)+1)
			answers = append(answers, cur.Answers...)
			cur.Answers = append(answers, answer)
			next = cur
			return cur
		},
		Write: func(ctx context.Context) error {
			return s.repo.Update(ctx, &next)
		},
		Policy: optimistic.Revert,
	})
	if err != nil {
		return nil, apperrors.NewStoreError("add answer", err)
	}
	return &next, nil
}

func (s *forumService) DeleteAnswer(ctx context.Context, questionID, answerID string, caller Participant) (*models.Question, error) {
	view, err := s.questionView(ctx, questionID)
	if err != nil {
		return nil, err
	}

	// The lookup runs inside Apply so the ownership check and the removal see
	// the same live snapshot; a denied or missing answer leaves the view
	// untouched and skips the write.
	var (
		next      models.Question
		found     bool
		forbidden bool
	)
	err = optimistic.Do(ctx, view, optimistic.Mutation[models.Question]{
		Apply: func(cur models.Question) models.Question {
			answers := make([]models.Answer, 0, len(cur.Answers))
			for _, a := range cur.Answers {
				if a.ID == answerID {
					if a.UserID != caller.UID && caller.Role != usermodels.RoleAdmin {
						forbidden = true
						return cur
					}
					found = true
					continue
				}
				answers = append(answers, a)
			}
			if !found {
				return cur
			}
			cur.Answers = answers
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
		return nil, apperrors.NewStoreError("delete answer", err)
	}
	if forbidden {
		return nil, apperrors.NewForbiddenError("only the author or an admin can delete an answer")
	}
	if !found {
		return nil, apperrors.NewNotFoundError("answer", answerID)
	}
	return &next, nil
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

func (s *forumService) ToggleLike(ctx context.Context, questionID, userUID string) (*models.Question, error) {
	view, err := s.questionView(ctx, questionID)
	if err != nil {
		return nil, err
	}

	// The toggle is computed inside Apply, under the view lock, so two
	// concurrent toggles are two ordered flips over the live snapshot rather
	// than two copies of the same stale base.
	var next models.Question
	err = optimistic.Do(ctx, view, optimistic.Mutation[models.Question]{
		Apply: func(cur models.Question) models.Question {
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
		return nil, apperrors.NewStoreError("toggle question like", err)
	}
	return &next, nil
}

// Resolve marks a question answered; only the asker or an admin may do so.
func (s *forumService) Resolve(ctx context.Context, questionID string, caller Participant) (*models.Question, error) {
	question, err := s.Get(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.AuthorID != caller.UID && caller.Role != usermodels.RoleAdmin {
		return nil, apperrors.NewForbiddenError("only the asker or an admin can resolve a question")
	}

	question.Resolved = true
	if err := s.repo.Update(ctx, question); err != nil {
		return nil, apperrors.NewStoreError("resolve question", err)
	}
	s.views.Drop(questionID)
	return question, nil
}
