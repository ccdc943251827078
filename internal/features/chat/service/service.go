package service

import (
	"context"

	"github.com/google/uuid"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/optimistic"
	"agrihub-backend/internal/common/validation"
	channelservice "agrihub-backend/internal/features/channel/service"
	"agrihub-backend/internal/features/chat/models"
	"agrihub-backend/internal/features/chat/repository"
	usermodels "agrihub-backend/internal/features/user/models"
)

// Sender is the denormalized author snapshot written into each message.
type Sender struct {
	UID         string
	DisplayName string
	Role        usermodels.Role
}

type ChatService interface {
	Send(ctx context.Context, channelID string, sender Sender, allowedChannels []string, text string) (*models.ChatMessage, error)
	History(ctx context.Context, channelID string, role usermodels.Role, allowedChannels []string) ([]models.ChatMessage, error)
	Delete(ctx context.Context, messageID, callerUID string, callerRole usermodels.Role) error
}

type chatService struct {
	repo     repository.MessageRepository
	notifier repository.Notifier
	registry *channelservice.Registry
	limit    int

	// Per-channel local views; a send is appended here before the store
	// write so the sender sees the message with zero latency, and the next
	// subscription snapshot overwrites the view with the remote truth.
	views *optimistic.Views[[]models.ChatMessage]
}

func NewChatService(
	repo repository.MessageRepository,
	notifier repository.Notifier,
	registry *channelservice.Registry,
	historyLimit int,
) ChatService {
	return &chatService{
		repo:     repo,
		notifier: notifier,
		registry: registry,
		limit:    historyLimit,
		views:    optimistic.NewViews[[]models.ChatMessage](),
	}
}

func (s *chatService) checkAccess(channelID string, role usermodels.Role, allowedChannels []string) error {
	if _, ok := s.registry.Lookup(channelID); !ok {
		return apperrors.NewUnknownChannelError(channelID)
	}
	if !s.registry.AllowedID(channelID, role, allowedChannels) {
		return apperrors.NewAccessDeniedError(channelID)
	}
	return nil
}

func (s *chatService) Send(ctx context.Context, channelID string, sender Sender, allowedChannels []string, text string) (*models.ChatMessage, error) {
	if err := s.checkAccess(channelID, sender.Role, allowedChannels); err != nil {
		return nil, err
	}
	if err := validation.ValidateMessageText(text); err != nil {
		return nil, apperrors.NewValidationError("text", err.Error())
	}

	name := sender.DisplayName
	if name == "" {
		name = "Member"
	}

	msg := &models.ChatMessage{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		UserID:    sender.UID,
		UserName:  name,
		UserRole:  sender.Role,
		Text:      text,
		CreatedAt: usermodels.NowMillis(),
	}

	view, err := s.views.Ensure(channelID, func() ([]models.ChatMessage, error) {
		return s.repo.ListByChannel(ctx, channelID, s.limit)
	})
	if err != nil {
		return nil, apperrors.NewStoreError("load channel", err)
	}

	err = optimistic.Do(ctx, view, optimistic.Mutation[[]models.ChatMessage]{
		Apply: func(msgs []models.ChatMessage) []models.ChatMessage {
			out := make([]models.ChatMessage, len(msgs), len(msgs)+1)
			copy(out, msgs)
			return append(out, *msg)
		},
		Write: func(ctx context.Context) error {
			if err := s.repo.Append(ctx, msg); err != nil {
				return err
			}
			return s.notifier.Publish(ctx, channelID)
		},
		// Revert so a failed send does not leave a phantom message in the
		// local view.
		Policy: optimistic.Revert,
	})
	if err != nil {
		return nil, apperrors.NewStoreError("send message", err)
	}
	return msg, nil
}

func (s *chatService) History(ctx context.Context, channelID string, role usermodels.Role, allowedChannels []string) ([]models.ChatMessage, error) {
	if err := s.checkAccess(channelID, role, allowedChannels); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListByChannel(ctx, channelID, s.limit)
	if err != nil {
		return nil, apperrors.NewStoreError("list messages", err)
	}
	sortByCreatedAt(msgs)
	return msgs, nil
}

// Delete removes a message; only the author or an admin may do so.
func (s *chatService) Delete(ctx context.Context, messageID, callerUID string, callerRole usermodels.Role) error {
	msg, err := s.repo.Get(ctx, messageID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError("message", messageID)
		}
		return apperrors.NewStoreError("get message", err)
	}

	if msg.UserID != callerUID && callerRole != usermodels.RoleAdmin {
		return apperrors.NewForbiddenError("only the author or an admin can delete a message")
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		return apperrors.NewStoreError("delete message", err)
	}

	// Drop the local view and wake subscribers so everyone refetches.
	s.views.Drop(msg.ChannelID)
	if err := s.notifier.Publish(ctx, msg.ChannelID); err != nil {
		return apperrors.NewStoreError("publish delete", err)
	}
	return nil
}
