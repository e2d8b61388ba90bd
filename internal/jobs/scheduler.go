package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"beefline/api/internal/config"
	"beefline/api/internal/tasks"
)

// Scheduler enqueues periodic maintenance work onto the redis stream
// the in-process consumer drains.
type Scheduler struct {
	cron   *cron.Cron
	queue  *redis.Client
	stream string
	log    zerolog.Logger
}

func NewScheduler(queue *redis.Client, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		queue:  queue,
		stream: cfg.Stream,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 0 1 * * *", s.enqueueDocumentSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 30 1 * * *", s.enqueueListingCleanup); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for in-flight enqueues.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) enqueueDocumentSweep() {
	if err := s.enqueueTask(map[string]any{
		"type": tasks.TypeExpireDocuments,
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue document sweep failed")
	}
}

func (s *Scheduler) enqueueListingCleanup() {
	if err := s.enqueueTask(map[string]any{
		"type": tasks.TypeCleanupSold,
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue listing cleanup failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: payload,
	}).Result()
	return err
}
