package service

import (
	"context"
	"sort"
	"sync"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/logger"
	"agrihub-backend/internal/common/optimistic"
	channelservice "agrihub-backend/internal/features/channel/service"
	"agrihub-backend/internal/features/chat/models"
	"agrihub-backend/internal/features/chat/repository"
	usermodels "agrihub-backend/internal/features/user/models"
)

// Subscriber maintains live subscriptions to channel message streams. Every
// delivery is the channel's full current message set sorted ascending by
// creation timestamp, never a delta.
type Subscriber struct {
	repo     repository.MessageRepository
	notifier repository.Notifier
	limit    int
}

func NewSubscriber(repo repository.MessageRepository, notifier repository.Notifier, historyLimit int) *Subscriber {
	return &Subscriber{repo: repo, notifier: notifier, limit: historyLimit}
}

func sortByCreatedAt(msgs []models.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt < msgs[j].CreatedAt
	})
}

// Subscribe starts a live subscription for one channel. fn receives the
// initial snapshot immediately and a fresh snapshot after every change
// notification. A failed re-read stalls the stream (logged, no retry);
// releasing the handle stops all deliveries.
func (s *Subscriber) Subscribe(ctx context.Context, channelID string, fn func([]models.ChatMessage)) (func(), error) {
	events, stopNotify, err := s.notifier.SubscribeNotify(ctx, channelID)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			stopNotify()
		})
	}

	deliver := func() bool {
		msgs, err := s.repo.ListByChannel(ctx, channelID, s.limit)
		if err != nil {
			logger.Error().Err(err).Str("channel_id", channelID).Msg("Chat snapshot read failed; stream stalled")
			return false
		}
		// The store usually reports creation order already; sorting here
		// keeps the contract independent of what the store actually does.
		sortByCreatedAt(msgs)

		select {
		case <-done:
			return false
		default:
		}
		fn(msgs)
		return true
	}

	go func() {
		if !deliver() {
			return
		}
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	return stop, nil
}

// Feed tracks one active channel selection. Selecting a new channel
// releases the previous subscription and clears the visible snapshot before
// the new channel starts loading, so the old channel's messages are never
// shown under the new channel's header.
type Feed struct {
	sub      *Subscriber
	registry *channelservice.Registry
	onUpdate func([]models.ChatMessage)

	mu      sync.Mutex
	current string
	gen     uint64
	stop    func()
	view    *optimistic.View[[]models.ChatMessage]
}

func NewFeed(sub *Subscriber, registry *channelservice.Registry, onUpdate func([]models.ChatMessage)) *Feed {
	return &Feed{
		sub:      sub,
		registry: registry,
		onUpdate: onUpdate,
		view:     optimistic.NewView[[]models.ChatMessage](nil),
	}
}

// Select switches the feed to channelID. If access is denied, no
// subscription is created and no request reaches the store.
func (f *Feed) Select(ctx context.Context, channelID string, role usermodels.Role, allowedChannels []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Release the old stream and clear the view first; a late callback from
	// the previous subscription is fenced off by the generation counter.
	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
	f.gen++
	gen := f.gen
	f.current = ""
	f.view.Set(nil)
	f.onUpdate(nil)

	if _, ok := f.registry.Lookup(channelID); !ok {
		return apperrors.NewUnknownChannelError(channelID)
	}
	if !f.registry.AllowedID(channelID, role, allowedChannels) {
		return apperrors.NewAccessDeniedError(channelID)
	}

	stop, err := f.sub.Subscribe(ctx, channelID, func(msgs []models.ChatMessage) {
		f.mu.Lock()
		stale := f.gen != gen
		f.mu.Unlock()
		if stale {
			return
		}
		f.view.Set(msgs)
		f.onUpdate(msgs)
	})
	if err != nil {
		return apperrors.NewStoreError("subscribe chat", err)
	}

	f.current = channelID
	f.stop = stop
	return nil
}

// Current returns the active channel id, empty when idle or denied.
func (f *Feed) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Messages returns the last delivered snapshot.
func (f *Feed) Messages() []models.ChatMessage {
	return f.view.Get()
}

func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
	f.gen++
	f.current = ""
	f.view.Set(nil)
}
