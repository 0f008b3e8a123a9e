package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	cfg "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

// The manual twitter path records this instead of a real tweet id.
const manualTwitterExternalID = "manual://twitter-intent"

// legalTransitions is the post lifecycle. rejected -> draft exists so a
// reviewer can send a post back for another edit round; everything else
// follows approve -> schedule -> post with failed as a retryable state.
var legalTransitions = map[string]map[string]bool{
	models.PostStatusDraft: {
		models.PostStatusApproved: true,
		models.PostStatusRejected: true,
	},
	models.PostStatusApproved: {
		models.PostStatusScheduled: true,
	},
	models.PostStatusScheduled: {
		models.PostStatusPosted: true,
		models.PostStatusFailed: true,
	},
	models.PostStatusFailed: {
		models.PostStatusApproved:  true,
		models.PostStatusScheduled: true,
	},
	models.PostStatusRejected: {
		models.PostStatusDraft: true,
	},
}

// Only these may be set through the status endpoint; the rest are
// owned by the scheduling and publish paths.
var manualStatusTargets = map[string]bool{
	models.PostStatusDraft:    true,
	models.PostStatusApproved: true,
	models.PostStatusRejected: true,
}

// Statuses a publish attempt may start from.
var publishableStatuses = map[string]bool{
	models.PostStatusApproved:  true,
	models.PostStatusScheduled: true,
	models.PostStatusFailed:    true,
}

// TxRunner runs a function inside one database transaction, so the
// post row and its ledger row always move together.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type PostService struct {
	cfg       cfg.Config
	tx        TxRunner
	posts     repository.PostRepository
	media     repository.MediaAssetRepository
	jobs      repository.PublishJobRepository
	approvals repository.ApprovalRepository
	platforms *PlatformService
}

func NewPostService(
	c cfg.Config,
	tx TxRunner,
	posts repository.PostRepository,
	media repository.MediaAssetRepository,
	jobs repository.PublishJobRepository,
	approvals repository.ApprovalRepository,
	platforms *PlatformService) *PostService {
	return &PostService{
		cfg:       c,
		tx:        tx,
		posts:     posts,
		media:     media,
		jobs:      jobs,
		approvals: approvals,
		platforms: platforms,
	}
}

func (s *PostService) GetPost(ctx context.Context, userID string, postID int64) (*models.GeneratedPost, error) {
	post, err := s.posts.GetByIDForUser(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, userID string) ([]*models.GeneratedPost, error) {
	return s.posts.ListByUser(ctx, userID)
}

func (s *PostService) UpdateEditedText(ctx context.Context, userID string, postID int64, editedText string) (*models.GeneratedPost, error) {
	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.SetEditedText(ctx, post.ID, editedText); err != nil {
		return nil, err
	}
	post.EditedText = editedText
	return post, nil
}

// UpdateStatus applies a reviewer-driven transition. Machine-owned
// statuses (scheduled, posted, failed) cannot be set here.
func (s *PostService) UpdateStatus(ctx context.Context, userID string, postID int64, status string) (*models.GeneratedPost, error) {
	if !manualStatusTargets[status] {
		return nil, fmt.Errorf("status %q is not settable directly: %w", status, ErrIllegalTransition)
	}

	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !legalTransitions[post.Status][status] {
		return nil, fmt.Errorf("%s -> %s: %w", post.Status, status, ErrIllegalTransition)
	}

	if err := s.posts.UpdateStatus(ctx, nil, post.ID, status); err != nil {
		return nil, err
	}

	switch status {
	case models.PostStatusApproved:
		err = s.approvals.Resolve(ctx, userID, post.ID, models.ApprovalStatusApproved, "")
	case models.PostStatusRejected:
		err = s.approvals.Resolve(ctx, userID, post.ID, models.ApprovalStatusRejected, "")
	}
	if err != nil {
		return nil, err
	}

	post.Status = status
	return post, nil
}

// Schedule sets the post's publish time. The ledger row and the post
// status move together in one transaction.
func (s *PostService) Schedule(ctx context.Context, userID string, postID int64, at time.Time) (*models.GeneratedPost, error) {
	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !legalTransitions[post.Status][models.PostStatusScheduled] {
		return nil, fmt.Errorf("%s -> scheduled: %w", post.Status, ErrIllegalTransition)
	}

	scheduledAt := at.UTC()

	err = s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.posts.MarkScheduled(ctx, tx, post.ID, scheduledAt); err != nil {
			return err
		}
		return s.jobs.Touch(ctx, tx, post, repository.TouchParams{
			Status:      models.JobStatusScheduled,
			ScheduledAt: &scheduledAt,
		})
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	post.Status = models.PostStatusScheduled
	post.ScheduledAt = &scheduledAt
	return post, nil
}

// Publish runs the full publish attempt for a post and records the
// outcome on both the post and its ledger row.
func (s *PostService) Publish(ctx context.Context, userID string, postID int64) (*transfer.PublishResult, error) {
	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, post)
}

func (s *PostService) publish(ctx context.Context, post *models.GeneratedPost) (*transfer.PublishResult, error) {
	if !publishableStatuses[post.Status] {
		return nil, fmt.Errorf("publish from %s: %w", post.Status, ErrIllegalTransition)
	}

	if post.Platform == models.PlatformTwitter && s.cfg.TwitterManualOnly {
		if err := s.recordFailure(ctx, post, ErrManualOnly.Error()); err != nil {
			return nil, err
		}
		return nil, ErrManualOnly
	}

	connector, err := s.platforms.Connector(post.Platform)
	if err != nil {
		if recordErr := s.recordFailure(ctx, post, err.Error()); recordErr != nil {
			return nil, recordErr
		}
		return nil, err
	}

	media, err := s.media.ListByPost(ctx, post.UserID, post.ID)
	if err != nil {
		return nil, err
	}

	externalID, err := connector.Publish(ctx, post.UserID, post.Content(), media)
	if err != nil {
		if recordErr := s.recordFailure(ctx, post, err.Error()); recordErr != nil {
			return nil, recordErr
		}
		return nil, err
	}

	if err := s.recordSuccess(ctx, post, externalID); err != nil {
		return nil, err
	}
	return &transfer.PublishResult{ExternalPostID: externalID}, nil
}

// ManualPublish marks a twitter post as posted without calling the API,
// for the manual-compose workflow when auto-posting is disabled.
func (s *PostService) ManualPublish(ctx context.Context, userID string, postID int64) (*transfer.PublishResult, error) {
	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Platform != models.PlatformTwitter {
		return nil, fmt.Errorf("manual publish is twitter-only: %w", ErrNotSupported)
	}
	if !publishableStatuses[post.Status] {
		return nil, fmt.Errorf("publish from %s: %w", post.Status, ErrIllegalTransition)
	}

	if err := s.recordSuccess(ctx, post, manualTwitterExternalID); err != nil {
		return nil, err
	}
	return &transfer.PublishResult{ExternalPostID: manualTwitterExternalID}, nil
}

// PublishScheduled is the scheduler entry point. By the time it
// returns, the outcome already lives on the post and the ledger; the
// scheduler only logs the returned error.
func (s *PostService) PublishScheduled(ctx context.Context, post *models.GeneratedPost) error {
	_, err := s.publish(ctx, post)
	return err
}

func (s *PostService) recordSuccess(ctx context.Context, post *models.GeneratedPost, externalID string) error {
	// The platform post exists by now. If this write is lost the post
	// stays scheduled and the next tick publishes it again, so outcome
	// recording must outlive a cancelled caller.
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()

	err := s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.posts.MarkPosted(ctx, tx, post.ID, now, externalID); err != nil {
			return err
		}
		return s.jobs.Touch(ctx, tx, post, repository.TouchParams{
			Status:    models.JobStatusPosted,
			Attempted: true,
			Completed: true,
		})
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	post.Status = models.PostStatusPosted
	post.PostedAt = &now
	post.ExternalPostID = externalID
	post.LastError = ""
	return nil
}

func (s *PostService) recordFailure(ctx context.Context, post *models.GeneratedPost, message string) error {
	ctx = context.WithoutCancel(ctx)

	err := s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.posts.MarkFailed(ctx, tx, post.ID, message); err != nil {
			return err
		}
		return s.jobs.Touch(ctx, tx, post, repository.TouchParams{
			Status:       models.JobStatusFailed,
			ErrorMessage: message,
			Attempted:    true,
		})
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	post.Status = models.PostStatusFailed
	post.LastError = message
	return nil
}

func (s *PostService) GetPublishJob(ctx context.Context, userID string, postID int64) (*models.PublishJob, error) {
	return s.jobs.GetByPost(ctx, userID, postID)
}

// ResolveApproval handles an approval-link click. The token carries the
// user and post, so the reviewer needs no session.
func (s *PostService) ResolveApproval(ctx context.Context, token, action string) (*models.GeneratedPost, error) {
	userID, postID, err := utils.ParseApprovalToken(s.cfg.StateSigningSecret, token)
	if err != nil {
		return nil, err
	}

	var target string
	switch action {
	case "approve":
		target = models.PostStatusApproved
	case "reject":
		target = models.PostStatusRejected
	default:
		return nil, fmt.Errorf("unknown approval action %q", action)
	}

	return s.UpdateStatus(ctx, userID, postID, target)
}
