package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
)

const (
	refreshWindow      = 30 * time.Minute
	refreshConcurrency = 10
)

// TokenRefreshJob proactively refreshes access tokens that expire soon,
// so publishes rarely hit a 401 in the first place. Accounts without a
// refresh token are excluded at the query level.
type TokenRefreshJob struct {
	accounts  repository.SocialAccountRepository
	platforms *service.PlatformService
	cron      *cron.Cron
}

func NewTokenRefreshJob(accounts repository.SocialAccountRepository, platforms *service.PlatformService) *TokenRefreshJob {
	return &TokenRefreshJob{
		accounts:  accounts,
		platforms: platforms,
		cron:      cron.New(),
	}
}

func (j *TokenRefreshJob) Start() error {
	if err := j.cron.AddFunc("@every 10m", func() {
		j.Run(context.Background())
	}); err != nil {
		return err
	}
	j.cron.Start()
	slog.Info("token refresh job started")
	return nil
}

func (j *TokenRefreshJob) Stop() {
	j.cron.Stop()
}

// Run refreshes every account expiring within the window, a bounded
// number at a time. One account failing only logs; the others proceed.
func (j *TokenRefreshJob) Run(ctx context.Context) {
	deadline := time.Now().UTC().Add(refreshWindow)
	accounts, err := j.accounts.ListExpiringBefore(ctx, deadline)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if len(accounts) == 0 {
		return
	}

	slog.Info("refreshing expiring tokens", "count", len(accounts))

	sem := make(chan struct{}, refreshConcurrency)
	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		sem <- struct{}{}
		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-sem }()

			connector, err := j.platforms.Connector(acc.Platform)
			if err != nil {
				slog.Info(err.Error())
				return
			}
			if err := connector.RefreshToken(ctx, acc); err != nil {
				slog.Info("token refresh failed", "platform", acc.Platform, "user_id", acc.UserID, "error", err.Error())
				return
			}
			slog.Info("token refreshed", "platform", acc.Platform, "user_id", acc.UserID)
		}(account)
	}
	wg.Wait()
}
