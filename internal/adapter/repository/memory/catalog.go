package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/srgjo27/event_ledger/internal/core/domain"
)

// Seed is the YAML document a memory catalog is loaded from.
type Seed struct {
	Events []domain.Event `yaml:"events"`
	Users  []domain.User  `yaml:"users"`
}

// Catalog serves events and users from a fixed seed.
type Catalog struct {
	mu     sync.RWMutex
	events []domain.Event
	users  []domain.User
}

func NewCatalog(seed Seed) *Catalog {
	return &Catalog{
		events: append([]domain.Event(nil), seed.Events...),
		users:  append([]domain.User(nil), seed.Users...),
	}
}

func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse catalog seed: %w", err)
	}

	seen := make(map[string]bool, len(seed.Events))
	for i, e := range seed.Events {
		if e.ID == "" {
			return Seed{}, fmt.Errorf("catalog seed: event %d has no id", i)
		}
		if seen[e.ID] {
			return Seed{}, fmt.Errorf("catalog seed: duplicate event id %s", e.ID)
		}
		if e.Price.IsNegative() {
			return Seed{}, fmt.Errorf("catalog seed: event %s has negative price %s", e.ID, e.Price)
		}
		seen[e.ID] = true
	}
	return seed, nil
}

func (c *Catalog) FindEvent(_ context.Context, eventID string) (*domain.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.events {
		if e.ID == eventID {
			event := e
			return &event, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
}

func (c *Catalog) ListEvents(_ context.Context) ([]domain.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]domain.Event(nil), c.events...), nil
}

func (c *Catalog) ListUsers(_ context.Context) ([]domain.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]domain.User(nil), c.users...), nil
}
