package services

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/platform/monitoring"
)

// LedgerSchemaVersion is the layout version written by this build. Startup
// cleanup in CleanupOnce mode runs only while the stored marker is older.
const LedgerSchemaVersion = 1

type CleanupMode string

const (
	CleanupOnce   CleanupMode = "once"
	CleanupAlways CleanupMode = "always"
)

// LifecycleService keeps ledger keys consistent across process start, login
// and logout. Every method is best-effort: failures are logged and swallowed
// because nothing upstream can act on them.
type LifecycleService struct {
	store    ports.KVStore
	keys     ports.KeyNamespace
	identity ports.IdentityProvider
	ledger   *LedgerService
	mode     CleanupMode
	log      *slog.Logger
	monitor  *monitoring.Monitor
}

func NewLifecycleService(store ports.KVStore, keys ports.KeyNamespace, identity ports.IdentityProvider, mode CleanupMode, log *slog.Logger, monitor *monitoring.Monitor) *LifecycleService {
	if log == nil {
		log = slog.Default()
	}
	if mode == "" {
		mode = CleanupOnce
	}

	return &LifecycleService{
		store:    store,
		keys:     keys,
		identity: identity,
		mode:     mode,
		log:      log,
		monitor:  monitor,
	}
}

// UseLedger makes ClearForUser also drop the ledger's in-memory copy.
func (s *LifecycleService) UseLedger(ledger *LedgerService) {
	s.ledger = ledger
}

// CleanupOnStartup removes every ledger left by the legacy shared-key layout
// and then makes sure the active user, if any, has an empty ledger.
// In CleanupOnce mode the removal happens until it has succeeded once.
func (s *LifecycleService) CleanupOnStartup(ctx context.Context) {
	if s.mode == CleanupAlways || !s.migrated(ctx) {
		if s.removeLedgers(ctx) && s.mode == CleanupOnce {
			if err := s.store.Set(ctx, SchemaVersionKey, strconv.Itoa(LedgerSchemaVersion)); err != nil {
				s.monitor.TrackStorageFailure("set")
				s.log.Warn("failed to record ledger migration", "error", err)
			}
		}
	} else {
		s.log.Debug("ledger migration already applied", "version", LedgerSchemaVersion)
	}

	if s.identity == nil {
		return
	}

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		s.log.Warn("failed to read active user during startup", "error", err)
		return
	}
	if user != nil && user.ID != "" {
		s.InitializeForUser(ctx, user.ID)
	}
}

// InitializeForUser creates an empty ledger for userID unless one exists.
func (s *LifecycleService) InitializeForUser(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	key := s.keys.LedgerKey(userID)
	created, err := s.store.SetIfAbsent(ctx, key, "[]")
	if err != nil {
		s.monitor.TrackStorageFailure("set_if_absent")
		s.log.Warn("failed to initialize ledger", "user_id", userID, "key", key, "error", err)
		return
	}

	if created {
		s.monitor.TrackLifecycleKeys("initialized", 1)
		s.log.Info("initialized empty ledger", "user_id", userID, "key", key)
	}
}

func (s *LifecycleService) ClearForUser(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	key := s.keys.LedgerKey(userID)
	if err := s.store.Delete(ctx, key); err != nil {
		s.monitor.TrackStorageFailure("delete")
		s.log.Warn("failed to clear ledger", "user_id", userID, "key", key, "error", err)
		return
	}

	if s.ledger != nil {
		s.ledger.Forget(userID)
	}

	s.monitor.TrackLifecycleKeys("cleared", 1)
	s.log.Info("cleared ledger", "user_id", userID, "key", key)
}

func (s *LifecycleService) migrated(ctx context.Context) bool {
	raw, found, err := s.store.Get(ctx, SchemaVersionKey)
	if err != nil {
		s.monitor.TrackStorageFailure("get")
		s.log.Warn("failed to read ledger migration marker", "error", err)
		return false
	}
	if !found {
		return false
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		s.log.Warn("ignoring unreadable ledger migration marker", "value", raw)
		return false
	}
	return version >= LedgerSchemaVersion
}

func (s *LifecycleService) removeLedgers(ctx context.Context) bool {
	pattern := s.keys.LedgerPattern()

	keys, err := s.store.Keys(ctx, pattern)
	if err != nil {
		s.monitor.TrackStorageFailure("keys")
		s.log.Warn("failed to list ledger keys", "pattern", pattern, "error", err)
		return false
	}
	if len(keys) == 0 {
		return true
	}

	if err := s.store.Delete(ctx, keys...); err != nil {
		s.monitor.TrackStorageFailure("delete")
		s.log.Warn("failed to remove ledger keys", "count", len(keys), "error", err)
		return false
	}

	s.monitor.TrackLifecycleKeys("removed", len(keys))
	s.log.Info("removed legacy ledger keys", "count", len(keys), "mode", s.mode)
	return true
}
