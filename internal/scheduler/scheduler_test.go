package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

type stubSource struct {
	due []*models.GeneratedPost
	err error
}

func (s *stubSource) ListDue(context.Context, time.Time) ([]*models.GeneratedPost, error) {
	return s.due, s.err
}

type stubPublisher struct {
	published []int64
	failOn    map[int64]error
}

func (p *stubPublisher) PublishScheduled(_ context.Context, post *models.GeneratedPost) error {
	if err, ok := p.failOn[post.ID]; ok {
		return err
	}
	p.published = append(p.published, post.ID)
	return nil
}

func duePost(id int64, platform string) *models.GeneratedPost {
	at := time.Now().UTC().Add(-time.Minute)
	return &models.GeneratedPost{
		ID: id, UserID: "u1", Platform: platform,
		Status: models.PostStatusScheduled, ScheduledAt: &at,
	}
}

func TestTickPublishesAllDue(t *testing.T) {
	source := &stubSource{due: []*models.GeneratedPost{
		duePost(1, models.PlatformLinkedin),
		duePost(2, models.PlatformTwitter),
	}}
	publisher := &stubPublisher{}

	New(source, publisher).Tick(context.Background())
	assert.Equal(t, []int64{1, 2}, publisher.published)
}

// One failing post must not block the rest of the batch.
func TestTickIsolatesFailures(t *testing.T) {
	source := &stubSource{due: []*models.GeneratedPost{
		duePost(1, models.PlatformLinkedin),
		duePost(2, models.PlatformLinkedin),
		duePost(3, models.PlatformTwitter),
	}}
	publisher := &stubPublisher{failOn: map[int64]error{
		2: errors.New("provider is down"),
	}}

	New(source, publisher).Tick(context.Background())
	assert.Equal(t, []int64{1, 3}, publisher.published)
}

func TestTickSurvivesListError(t *testing.T) {
	source := &stubSource{err: errors.New("db is down")}
	publisher := &stubPublisher{}

	New(source, publisher).Tick(context.Background())
	assert.Empty(t, publisher.published)
}

func TestStartStop(t *testing.T) {
	source := &stubSource{}
	s := New(source, &stubPublisher{})
	s.interval = 10 * time.Millisecond

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop()
}

type blockingPublisher struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (p *blockingPublisher) PublishScheduled(ctx context.Context, _ *models.GeneratedPost) error {
	p.once.Do(func() { close(p.started) })
	<-p.release
	p.ctxErr = ctx.Err()
	return nil
}

// Stopping mid-tick must not kill the context the tick runs on: a post
// whose platform call already succeeded still records its outcome, so
// the next process start cannot publish it a second time.
func TestStopLeavesInFlightTickUncancelled(t *testing.T) {
	publisher := &blockingPublisher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	source := &stubSource{due: []*models.GeneratedPost{duePost(1, models.PlatformLinkedin)}}

	s := New(source, publisher)
	s.interval = 5 * time.Millisecond
	s.Start()

	<-publisher.started
	s.Stop()
	close(publisher.release)

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler loop did not exit after Stop")
	}
	assert.NoError(t, publisher.ctxErr, "in-flight tick saw a dead context")
}
