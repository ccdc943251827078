package repository

import (
	"context"
	"errors"

	"agrihub-backend/internal/features/chat/models"
)

var ErrNotFound = errors.New("message not found")

type MessageRepository interface {
	Append(ctx context.Context, msg *models.ChatMessage) error

	// ListByChannel returns the channel's full message set ordered ascending
	// by creation timestamp, capped at limit (most recent kept).
	ListByChannel(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error)

	Get(ctx context.Context, messageID string) (*models.ChatMessage, error)
	Delete(ctx context.Context, messageID string) error

	// Trim discards everything but the newest keep messages in a channel.
	Trim(ctx context.Context, channelID string, keep int) (int64, error)
}

// Notifier is the push-subscription primitive of the document store: it
// signals "something changed", and subscribers re-read the full result set.
type Notifier interface {
	Publish(ctx context.Context, channelID string) error

	// SubscribeNotify delivers a tick per change until stop is called.
	SubscribeNotify(ctx context.Context, channelID string) (<-chan struct{}, func(), error)
}
