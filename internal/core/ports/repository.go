package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/event_ledger/internal/core/domain"
)

// KVStore is the string key-value store ledgers and sessions live in.
// Get reports a missing key with found == false and a nil error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	SetIfAbsent(ctx context.Context, key string, value string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// KeyNamespace maps a user identity onto its ledger key. LedgerPattern is a
// glob matching every ledger key produced by LedgerKey.
type KeyNamespace interface {
	LedgerKey(userID string) string
	LedgerPattern() string
}

type EventCatalog interface {
	FindEvent(ctx context.Context, eventID string) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

type PaymentRequest struct {
	UserID  string
	EventID string
	Method  string
	Amount  decimal.Decimal
}

type PaymentResult struct {
	Reference string
}

type PaymentProcessor interface {
	Charge(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}
