package service

import (
	"context"
	"fmt"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
)

// PlatformService is the connector registry. Handlers and the scheduler
// name a platform; this dispatches to the right Connector or reports
// ErrNotSupported.
type PlatformService struct {
	connectors map[string]Connector
	sa         repository.SocialAccountRepository
}

func NewPlatformService(sa repository.SocialAccountRepository, connectors ...Connector) *PlatformService {
	registry := make(map[string]Connector, len(connectors))
	for _, c := range connectors {
		registry[c.Platform()] = c
	}
	return &PlatformService{connectors: registry, sa: sa}
}

func (s *PlatformService) Connector(platform string) (Connector, error) {
	c, ok := s.connectors[platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", platform, ErrNotSupported)
	}
	return c, nil
}

func (s *PlatformService) GetAuthURL(ctx context.Context, userID, platform string) (string, error) {
	c, err := s.Connector(platform)
	if err != nil {
		return "", err
	}
	return c.BeginAuthorization(ctx, userID)
}

func (s *PlatformService) HandleCallback(ctx context.Context, platform, code, state string) (string, error) {
	c, err := s.Connector(platform)
	if err != nil {
		return "", err
	}
	return c.HandleCallback(ctx, code, state)
}

func (s *PlatformService) ListAccounts(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	return s.sa.ListByUser(ctx, userID)
}
