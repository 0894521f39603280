package services

import (
	"context"
	"fmt"
	"time"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/core/query"
	"github.com/srgjo27/event_ledger/internal/platform/monitoring"
)

type CatalogService struct {
	events  ports.EventCatalog
	users   ports.UserDirectory
	monitor *monitoring.Monitor
}

func NewCatalogService(events ports.EventCatalog, users ports.UserDirectory, monitor *monitoring.Monitor) *CatalogService {
	return &CatalogService{events: events, users: users, monitor: monitor}
}

func (s *CatalogService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.events.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	return event, nil
}

func (s *CatalogService) ListEvents(ctx context.Context, spec query.Spec) (query.Result[domain.Event], error) {
	started := time.Now()
	defer s.monitor.TrackQuery("events", started)

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return query.Result[domain.Event]{}, fmt.Errorf("list events: %w", err)
	}
	return query.Run(events, EventSchema, spec)
}

func (s *CatalogService) ListUsers(ctx context.Context, spec query.Spec) (query.Result[domain.User], error) {
	started := time.Now()
	defer s.monitor.TrackQuery("users", started)

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return query.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return query.Run(users, UserSchema, spec)
}
