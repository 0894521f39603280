package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/platform/monitoring"
)

// LedgerService owns each user's list of bookings, newest first, stored as
// one JSON array per user. Writes always replace the whole array.
//
// When the store fails, callers get the last ledger this process saw for
// the user along with an error wrapping domain.ErrStorageUnavailable.
type LedgerService struct {
	store   ports.KVStore
	keys    ports.KeyNamespace
	log     *slog.Logger
	monitor *monitoring.Monitor

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string][]domain.Booking
}

func NewLedgerService(store ports.KVStore, keys ports.KeyNamespace, log *slog.Logger, monitor *monitoring.Monitor) *LedgerService {
	if log == nil {
		log = slog.Default()
	}

	return &LedgerService{
		store:   store,
		keys:    keys,
		log:     log,
		monitor: monitor,
		locks:   make(map[string]*sync.Mutex),
		cache:   make(map[string][]domain.Booking),
	}
}

func (s *LedgerService) Load(ctx context.Context, userID string) ([]domain.Booking, error) {
	if userID == "" {
		return nil, domain.NewConfigurationError("userID", "must not be empty")
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	bookings, err := s.read(ctx, userID)
	if err != nil {
		s.monitor.TrackLedgerOperation("load", "degraded")
		return s.cached(userID), err
	}

	s.monitor.TrackLedgerOperation("load", "ok")
	return bookings, nil
}

// Append stores booking at the head of the user's ledger. Bookings are not
// deduplicated by ID.
func (s *LedgerService) Append(ctx context.Context, userID string, booking domain.Booking) error {
	if userID == "" {
		return domain.NewConfigurationError("userID", "must not be empty")
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.read(ctx, userID)
	if err != nil {
		s.remember(userID, prepend(booking, s.cached(userID)))
		s.monitor.TrackLedgerOperation("append", "degraded")
		return err
	}

	next := prepend(booking, current)
	s.remember(userID, next)

	if err := s.write(ctx, userID, next); err != nil {
		s.monitor.TrackLedgerOperation("append", "degraded")
		return err
	}

	s.monitor.TrackLedgerOperation("append", "ok")
	s.log.Debug("booking appended", "user_id", userID, "booking_id", booking.ID, "ledger_size", len(next))
	return nil
}

// SetStatus moves one booking to status. It returns false with a nil error
// when no booking has bookingID. A true result with a non-nil error means
// the change was applied in memory but could not be persisted.
func (s *LedgerService) SetStatus(ctx context.Context, userID, bookingID string, status domain.BookingStatus) (bool, error) {
	if userID == "" {
		return false, domain.NewConfigurationError("userID", "must not be empty")
	}
	if !status.IsValid() {
		return false, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	current, readErr := s.read(ctx, userID)
	if readErr != nil {
		current = s.cached(userID)
	}

	idx := -1
	for i := range current {
		if current[i].ID == bookingID {
			idx = i
			break
		}
	}

	if idx < 0 {
		s.monitor.TrackLedgerOperation("set_status", "not_found")
		return false, readErr
	}

	if !current[idx].Status.CanTransitionTo(status) {
		s.monitor.TrackLedgerOperation("set_status", "rejected")
		return false, domain.NewValidationError("status",
			fmt.Sprintf("booking cannot move from %s to %s", current[idx].Status, status))
	}

	next := make([]domain.Booking, len(current))
	copy(next, current)
	next[idx].Status = status
	s.remember(userID, next)

	if readErr != nil {
		s.monitor.TrackLedgerOperation("set_status", "degraded")
		return true, readErr
	}

	if err := s.write(ctx, userID, next); err != nil {
		s.monitor.TrackLedgerOperation("set_status", "degraded")
		return true, err
	}

	s.monitor.TrackLedgerOperation("set_status", "ok")
	s.log.Info("booking status changed", "user_id", userID, "booking_id", bookingID, "status", status)
	return true, nil
}

// Forget drops the in-memory copy of a user's ledger.
func (s *LedgerService) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, userID)
}

func (s *LedgerService) read(ctx context.Context, userID string) ([]domain.Booking, error) {
	key := s.keys.LedgerKey(userID)

	raw, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.monitor.TrackStorageFailure("get")
		s.log.Warn("ledger load failed, using in-memory state", "user_id", userID, "key", key, "error", err)
		return nil, fmt.Errorf("load ledger %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}

	if !found {
		s.remember(userID, nil)
		return []domain.Booking{}, nil
	}

	bookings := s.decode(key, raw)
	s.remember(userID, bookings)
	return bookings, nil
}

func (s *LedgerService) decode(key, raw string) []domain.Booking {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.monitor.TrackMalformedRecords(1)
		s.log.Warn("ledger value is not a JSON array, ignoring it", "key", key, "error", err)
		return []domain.Booking{}
	}

	bookings := make([]domain.Booking, 0, len(records))
	dropped := 0
	for i, rec := range records {
		var b domain.Booking
		if err := json.Unmarshal(rec, &b); err != nil {
			dropped++
			s.log.Warn("dropping malformed booking record", "key", key, "index", i, "error", err)
			continue
		}
		bookings = append(bookings, b)
	}

	s.monitor.TrackMalformedRecords(dropped)
	return bookings
}

func (s *LedgerService) write(ctx context.Context, userID string, bookings []domain.Booking) error {
	key := s.keys.LedgerKey(userID)

	records := make([]domain.BookingRecord, 0, len(bookings))
	for _, b := range bookings {
		records = append(records, domain.NewBookingRecord(b))
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}

	if err := s.store.Set(ctx, key, string(data)); err != nil {
		s.monitor.TrackStorageFailure("set")
		s.log.Warn("ledger save failed, keeping in-memory state", "user_id", userID, "key", key, "error", err)
		return fmt.Errorf("save ledger %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}

	return nil
}

func (s *LedgerService) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *LedgerService) remember(userID string, bookings []domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[userID] = append([]domain.Booking(nil), bookings...)
}

func (s *LedgerService) cached(userID string) []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Booking{}, s.cache[userID]...)
}

func prepend(b domain.Booking, rest []domain.Booking) []domain.Booking {
	out := make([]domain.Booking, 0, len(rest)+1)
	out = append(out, b)
	return append(out, rest...)
}
