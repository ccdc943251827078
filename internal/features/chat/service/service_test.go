package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agrihub-backend/internal/common/errors"
	channelservice "agrihub-backend/internal/features/channel/service"
	"agrihub-backend/internal/features/chat/models"
	usermodels "agrihub-backend/internal/features/user/models"
)

func newTestChatService(repo *fakeMessageRepo, notifier *fakeNotifier) *chatService {
	return NewChatService(repo, notifier, channelservice.NewRegistry(nil), 500).(*chatService)
}

func member(uid string) Sender {
	return Sender{UID: uid, DisplayName: "Farmer", Role: usermodels.RoleUser}
}

func TestSendAppendsAndNotifies(t *testing.T) {
	repo := newFakeMessageRepo()
	notifier := newFakeNotifier()
	svc := newTestChatService(repo, notifier)

	sent, err := svc.Send(context.Background(), "general", member("u1"), []string{"general"}, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, "general", sent.ChannelID)
	assert.Equal(t, usermodels.RoleUser, sent.UserRole)

	require.Len(t, repo.byChan["general"], 1)
	assert.Equal(t, []string{"general"}, notifier.published)
}

func TestSendDeniedChannel(t *testing.T) {
	repo := newFakeMessageRepo()
	svc := newTestChatService(repo, newFakeNotifier())

	_, err := svc.Send(context.Background(), "pig", member("u1"), []string{"general"}, "hello")
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, appErr.Code)
	assert.Empty(t, repo.byChan["pig"])
}

func TestSendUnknownChannelFailsClosed(t *testing.T) {
	svc := newTestChatService(newFakeMessageRepo(), newFakeNotifier())

	_, err := svc.Send(context.Background(), "ghost", member("u1"), []string{"ghost"}, "hello")
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeUnknownChannel, appErr.Code)
}

func TestSendFailureLeavesNoPhantomMessage(t *testing.T) {
	repo := newFakeMessageRepo()
	repo.byChan["general"] = []models.ChatMessage{msg("m1", "general", 100)}
	svc := newTestChatService(repo, newFakeNotifier())

	// Prime the local view, then make the write fail.
	_, err := svc.Send(context.Background(), "general", member("u1"), []string{"general"}, "first")
	require.NoError(t, err)

	repo.appendErr = errors.New("write failed")
	_, err = svc.Send(context.Background(), "general", member("u1"), []string{"general"}, "second")
	require.Error(t, err)

	view, verr := svc.views.Ensure("general", func() ([]models.ChatMessage, error) { return nil, nil })
	require.NoError(t, verr)
	// The failed send is reverted: only the store's m1 and the successful
	// first send remain.
	assert.Len(t, view.Get(), 2)
}

func TestSendEmptyTextRejected(t *testing.T) {
	svc := newTestChatService(newFakeMessageRepo(), newFakeNotifier())

	_, err := svc.Send(context.Background(), "general", member("u1"), []string{"general"}, "   ")
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestSendDefaultsDisplayName(t *testing.T) {
	repo := newFakeMessageRepo()
	svc := newTestChatService(repo, newFakeNotifier())

	sent, err := svc.Send(context.Background(), "general", Sender{UID: "u1", Role: usermodels.RoleUser}, []string{"general"}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Member", sent.UserName)
}

func TestHistorySortedAscending(t *testing.T) {
	repo := newFakeMessageRepo()
	repo.byChan["general"] = []models.ChatMessage{
		msg("m2", "general", 200),
		msg("m1", "general", 100),
	}
	svc := newTestChatService(repo, newFakeNotifier())

	msgs, err := svc.History(context.Background(), "general", usermodels.RoleUser, []string{"general"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
}

func TestDeleteAuthorOnly(t *testing.T) {
	repo := newFakeMessageRepo()
	m := msg("m1", "general", 100)
	m.UserID = "author"
	repo.byChan["general"] = []models.ChatMessage{m}
	svc := newTestChatService(repo, newFakeNotifier())

	err := svc.Delete(context.Background(), "m1", "someone-else", usermodels.RoleUser)
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), "m1", "author", usermodels.RoleUser))
	assert.Empty(t, repo.byChan["general"])
}

func TestDeleteAdminOverride(t *testing.T) {
	repo := newFakeMessageRepo()
	m := msg("m1", "general", 100)
	m.UserID = "author"
	repo.byChan["general"] = []models.ChatMessage{m}
	notifier := newFakeNotifier()
	svc := newTestChatService(repo, notifier)

	require.NoError(t, svc.Delete(context.Background(), "m1", "admin-uid", usermodels.RoleAdmin))
	assert.Empty(t, repo.byChan["general"])
	// Subscribers are woken so they refetch without the deleted message.
	assert.Equal(t, []string{"general"}, notifier.published)
}
