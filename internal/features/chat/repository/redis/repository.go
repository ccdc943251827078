package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"agrihub-backend/internal/features/chat/models"
	"agrihub-backend/internal/features/chat/repository"
	"agrihub-backend/internal/platform/redis"
)

const (
	channelKeyPrefix = "chat:"
	messageKeyPrefix = "chat_msg:"
	notifyKeyPrefix  = "chat_notify:"
)

type messageRepository struct {
	client *redis.Client
}

func NewMessageRepository(client *redis.Client) repository.MessageRepository {
	return &messageRepository{client: client}
}

func channelKey(channelID string) string {
	return channelKeyPrefix + channelID
}

func messageKey(id string) string {
	return messageKeyPrefix + id
}

func (r *messageRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, messageKey(msg.ID), data, 0)
	pipe.ZAdd(ctx, channelKey(msg.ChannelID), goredis.Z{
		Score:  float64(msg.CreatedAt),
		Member: msg.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *messageRepository) ListByChannel(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	// Sorted-set scores keep the stream in creation-timestamp order
	// regardless of write acknowledgement order.
	ids, err := r.client.ZRange(ctx, channelKey(channelID), start, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.ChatMessage{}, nil
	}

	msgs := make([]models.ChatMessage, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, messageKey(id)).Bytes()
		if err != nil {
			continue
		}

		var msg models.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *messageRepository) Get(ctx context.Context, messageID string) (*models.ChatMessage, error) {
	data, err := r.client.Get(ctx, messageKey(messageID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var msg models.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, messageID string) error {
	msg, err := r.Get(ctx, messageID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, channelKey(msg.ChannelID), messageID)
	pipe.Del(ctx, messageKey(messageID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *messageRepository) Trim(ctx context.Context, channelID string, keep int) (int64, error) {
	key := channelKey(channelID)

	total, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	excess := total - int64(keep)
	if excess <= 0 {
		return 0, nil
	}

	ids, err := r.client.ZRange(ctx, key, 0, excess-1).Result()
	if err != nil {
		return 0, err
	}

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByRank(ctx, key, 0, excess-1)
	for _, id := range ids {
		pipe.Del(ctx, messageKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return excess, nil
}

type notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) repository.Notifier {
	return &notifier{client: client}
}

func (n *notifier) Publish(ctx context.Context, channelID string) error {
	return n.client.Publish(ctx, notifyKeyPrefix+channelID, "1").Err()
}

func (n *notifier) SubscribeNotify(ctx context.Context, channelID string) (<-chan struct{}, func(), error) {
	pubsub := n.client.Subscribe(ctx, notifyKeyPrefix+channelID)

	// Force the subscription to be established before returning so no
	// notification published after this call is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)
		for range pubsub.Channel() {
			select {
			case events <- struct{}{}:
			default:
				// A pending tick already forces a full re-read; collapsing
				// bursts is safe because deliveries are snapshots.
			}
		}
	}()

	stop := func() { _ = pubsub.Close() }
	return events, stop, nil
}
