package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

const pollInterval = time.Minute

// DuePostSource lists scheduled posts whose time has arrived.
type DuePostSource interface {
	ListDue(ctx context.Context, now time.Time) ([]*models.GeneratedPost, error)
}

// Publisher runs one publish attempt and records its outcome itself.
type Publisher interface {
	PublishScheduled(ctx context.Context, post *models.GeneratedPost) error
}

// Scheduler polls the database once a minute and publishes everything
// due. There is exactly one instance per process; it holds no state
// beyond the stop signal, so a restart picks up where the last tick
// left off.
type Scheduler struct {
	source    DuePostSource
	publisher Publisher
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
}

func New(source DuePostSource, publisher Publisher) *Scheduler {
	return &Scheduler{
		source:    source,
		publisher: publisher,
		interval:  pollInterval,
	}
}

func (s *Scheduler) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("scheduler started", "interval", s.interval.String())
		for {
			select {
			case <-s.stop:
				slog.Info("scheduler stopped")
				return
			case <-ticker.C:
				// Each tick runs on its own context. A stop signal must
				// never abort outcome recording for a post that already
				// went out on the platform.
				s.Tick(context.Background())
			}
		}
	}()
}

// Stop signals the loop to exit. It neither cancels nor awaits an
// in-flight tick; that tick drains and records its outcomes.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// Tick publishes every due post. A failing post never blocks the rest
// of the batch; its failure is already recorded by the publisher.
func (s *Scheduler) Tick(ctx context.Context) {
	due, err := s.source.ListDue(ctx, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if len(due) == 0 {
		return
	}

	slog.Info("publishing due posts", "count", len(due))
	for _, post := range due {
		if err := s.publisher.PublishScheduled(ctx, post); err != nil {
			slog.Info("scheduled publish failed", "post_id", post.ID, "platform", post.Platform, "error", err.Error())
			continue
		}
		slog.Info("scheduled publish succeeded", "post_id", post.ID, "platform", post.Platform)
	}
}
