package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"agrihub-backend/internal/common/logger"
	channelservice "agrihub-backend/internal/features/channel/service"
	chatrepo "agrihub-backend/internal/features/chat/repository"
)

// ChatTrimJob periodically trims every channel's message backlog to the
// retention limit so the chat key space stays bounded.
type ChatTrimJob struct {
	repo     chatrepo.MessageRepository
	registry *channelservice.Registry
	keep     int
}

func NewChatTrimJob(repo chatrepo.MessageRepository, registry *channelservice.Registry, keep int) *ChatTrimJob {
	return &ChatTrimJob{
		repo:     repo,
		registry: registry,
		keep:     keep,
	}
}

func (j *ChatTrimJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, id := range j.registry.IDs() {
		removed, err := j.repo.Trim(ctx, id, j.keep)
		if err != nil {
			logger.Warn().Err(err).Str("channel_id", id).Msg("Chat trim failed")
			continue
		}
		if removed > 0 {
			logger.Info().Str("channel_id", id).Int64("removed", removed).Msg("Trimmed chat backlog")
		}
	}
}

// Start registers all background jobs on a cron scheduler and starts it.
func Start(spec string, job *ChatTrimJob) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
