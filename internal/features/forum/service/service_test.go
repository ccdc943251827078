package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/features/forum/models"
	"agrihub-backend/internal/features/forum/repository"
	usermodels "agrihub-backend/internal/features/user/models"
)

type fakeQuestionRepo struct {
	questions map[string]*models.Question
	order     []string
	updateErr error
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: make(map[string]*models.Question)}
}

func (f *fakeQuestionRepo) Create(ctx context.Context, q *models.Question) error {
	cp := *q
	f.questions[q.ID] = &cp
	f.order = append(f.order, q.ID)
	return nil
}

func (f *fakeQuestionRepo) Get(ctx context.Context, id string) (*models.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, q *models.Question) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.questions[q.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, id string) error {
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestionRepo) List(ctx context.Context) ([]*models.Question, error) {
	out := make([]*models.Question, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		if q, ok := f.questions[f.order[i]]; ok {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func asker() Participant {
	return Participant{UID: "asker-1", DisplayName: "Farmer", Role: usermodels.RoleUser}
}

func expert() Participant {
	return Participant{UID: "vet-1", DisplayName: "Vet", Role: usermodels.RoleTechnical}
}

func createQuestion(t *testing.T, svc ForumService) *models.Question {
	t.Helper()
	q, err := svc.Create(context.Background(), asker(), &models.CreateQuestionRequest{
		Title:   "Why are my chicks sneezing?",
		Content: "Started two days ago, no fever.",
	})
	require.NoError(t, err)
	return q
}

func TestCreateQuestion(t *testing.T) {
	svc := NewForumService(newFakeQuestionRepo())

	q := createQuestion(t, svc)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "asker-1", q.AuthorID)
	assert.False(t, q.Resolved)
	assert.Empty(t, q.Answers)
}

func TestAddAnswerRecordsRoleAtAnswerTime(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)
	q := createQuestion(t, svc)

	answered, err := svc.AddAnswer(context.Background(), q.ID, expert(), "Check for infectious bronchitis.")
	require.NoError(t, err)
	require.Len(t, answered.Answers, 1)
	// The role is denormalized into the answer so the expert badge survives
	// later role changes.
	assert.Equal(t, usermodels.RoleTechnical, answered.Answers[0].UserRole)
}

func TestDeleteAnswerAuthorOrAdminOnly(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)
	q := createQuestion(t, svc)

	answered, err := svc.AddAnswer(context.Background(), q.ID, expert(), "Answer text")
	require.NoError(t, err)
	answerID := answered.Answers[0].ID

	_, err = svc.DeleteAnswer(context.Background(), q.ID, answerID, asker())
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)

	after, err := svc.DeleteAnswer(context.Background(), q.ID, answerID,
		Participant{UID: "admin-1", Role: usermodels.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, after.Answers)
}

func TestConcurrentAnswersBothSurvive(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)
	q := createQuestion(t, svc)

	// First answer loads the per-question view.
	_, err := svc.AddAnswer(context.Background(), q.ID, expert(), "First answer")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, aerr := svc.AddAnswer(context.Background(), q.ID, asker(), "Follow-up")
			assert.NoError(t, aerr)
		}()
	}
	wg.Wait()

	// Appends serialize on the view; neither answer overwrites the other.
	stored, err := repo.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Answers, 3)
}

func TestToggleLikeRevertsOnWriteFailure(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)
	q := createQuestion(t, svc)

	liked, err := svc.ToggleLike(context.Background(), q.ID, "member-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"member-2"}, liked.Likes)

	repo.updateErr = errors.New("write failed")
	_, err = svc.ToggleLike(context.Background(), q.ID, "member-3")
	require.Error(t, err)

	// The stored question still has only the confirmed like.
	stored, _ := repo.Get(context.Background(), q.ID)
	assert.Equal(t, []string{"member-2"}, stored.Likes)
}

func TestResolveAskerOrAdminOnly(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)
	q := createQuestion(t, svc)

	_, err := svc.Resolve(context.Background(), q.ID, expert())
	require.Error(t, err)

	resolved, err := svc.Resolve(context.Background(), q.ID, asker())
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
}

func TestDeleteQuestion(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)
	q := createQuestion(t, svc)

	err := svc.Delete(context.Background(), q.ID, Participant{UID: "stranger", Role: usermodels.RoleUser})
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), q.ID, asker()))
	_, err = svc.Get(context.Background(), q.ID)
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestListNewestFirst(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewForumService(repo)

	first := createQuestion(t, svc)
	second, err := svc.Create(context.Background(), asker(), &models.CreateQuestionRequest{
		Title:   "Second question",
		Content: "Content",
	})
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
