package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/event_ledger/internal/adapter/repository/memory"
	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports/mocks"
	"github.com/srgjo27/event_ledger/internal/core/services"
)

var keys = services.NewPrefixNamespace("")

func newBooking(id string, status domain.BookingStatus) domain.Booking {
	return domain.Booking{
		ID:              id,
		EventID:         "evt-1",
		EventTitle:      "Summer Music Fest",
		EventDate:       "2024-07-12",
		EventTime:       "18:00",
		EventLocation:   "Riverside Park",
		Category:        "music",
		NumberOfTickets: 2,
		TotalAmount:     decimal.RequireFromString("101.48"),
		BookingDate:     "2024-06-01T10:00:00Z",
		Status:          status,
		TicketID:        "SUM-123456-ABC",
	}
}

func TestLedger_LoadMissingKeyIsEmpty(t *testing.T) {
	store := memory.NewKVStore()
	ledger := services.NewLedgerService(store, keys, nil, nil)

	bookings, err := ledger.Load(context.Background(), "42")

	require.NoError(t, err)
	assert.Empty(t, bookings)
	_, found, _ := store.Get(context.Background(), "bookings_42")
	assert.False(t, found, "load must not create the key")
}

func TestLedger_AppendRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	ledger := services.NewLedgerService(store, keys, nil, nil)

	require.NoError(t, ledger.Append(ctx, "42", newBooking("b1", domain.BookingConfirmed)))
	require.NoError(t, ledger.Append(ctx, "42", newBooking("b2", domain.BookingPending)))
	before, err := ledger.Load(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, ledger.Append(ctx, "42", newBooking("b3", domain.BookingPending)))

	after, err := services.NewLedgerService(store, keys, nil, nil).Load(ctx, "42")
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, "b3", after[0].ID)
	assert.Equal(t, before, after[1:])
}

func TestLedger_AppendDoesNotDeduplicate(t *testing.T) {
	ctx := context.Background()
	ledger := services.NewLedgerService(memory.NewKVStore(), keys, nil, nil)

	b := newBooking("b1", domain.BookingConfirmed)
	require.NoError(t, ledger.Append(ctx, "42", b))
	require.NoError(t, ledger.Append(ctx, "42", b))

	bookings, err := ledger.Load(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestLedger_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	ledger := services.NewLedgerService(memory.NewKVStore(), keys, nil, nil)

	require.NoError(t, ledger.Append(ctx, "1", newBooking("b1", domain.BookingConfirmed)))

	other, err := ledger.Load(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, other)

	found, err := ledger.SetStatus(ctx, "2", "b1", domain.BookingCancelled)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLedger_SetStatusChangesOnlyStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	ledger := services.NewLedgerService(store, keys, nil, nil)

	require.NoError(t, ledger.Append(ctx, "42", newBooking("b1", domain.BookingPending)))
	require.NoError(t, ledger.Append(ctx, "42", newBooking("b2", domain.BookingConfirmed)))

	found, err := ledger.SetStatus(ctx, "42", "b1", domain.BookingCancelled)
	require.NoError(t, err)
	assert.True(t, found)

	bookings, err := ledger.Load(ctx, "42")
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	want := newBooking("b1", domain.BookingCancelled)
	assert.Equal(t, want.ID, bookings[1].ID)
	assert.Equal(t, domain.BookingCancelled, bookings[1].Status)
	assert.True(t, want.TotalAmount.Equal(bookings[1].TotalAmount))
	bookings[1].TotalAmount = want.TotalAmount
	assert.Equal(t, want, bookings[1])
	assert.Equal(t, domain.BookingConfirmed, bookings[0].Status)
}

func TestLedger_SetStatusNotFoundLeavesStorageUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	ledger := services.NewLedgerService(store, keys, nil, nil)
	require.NoError(t, ledger.Append(ctx, "42", newBooking("b1", domain.BookingPending)))
	raw, _, _ := store.Get(ctx, "bookings_42")

	found, err := ledger.SetStatus(ctx, "42", "missing", domain.BookingCancelled)

	require.NoError(t, err)
	assert.False(t, found)
	after, _, _ := store.Get(ctx, "bookings_42")
	assert.Equal(t, raw, after)
}

func TestLedger_SetStatusRejectsBackwardsTransition(t *testing.T) {
	ctx := context.Background()
	ledger := services.NewLedgerService(memory.NewKVStore(), keys, nil, nil)
	require.NoError(t, ledger.Append(ctx, "42", newBooking("b1", domain.BookingConfirmed)))

	found, err := ledger.SetStatus(ctx, "42", "b1", domain.BookingPending)
	assert.False(t, found)
	assert.True(t, domain.IsValidationError(err))

	_, err = ledger.SetStatus(ctx, "42", "b1", domain.BookingStatus("lost"))
	assert.True(t, domain.IsValidationError(err))
}

func TestLedger_DropsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, "bookings_42", `[
		{"id":"good","eventTitle":"Jazz Night","status":"confirmed","numberOfTickets":1,"totalAmount":25},
		{"id":"bad","eventTitle":"Jazz Night"},
		"not an object",
		{"eventTitle":"No id","status":"pending"}
	]`))
	ledger := services.NewLedgerService(store, keys, nil, nil)

	bookings, err := ledger.Load(ctx, "42")

	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "good", bookings[0].ID)
	assert.Equal(t, "25", bookings[0].TotalAmount.String())
}

func TestLedger_NonArrayValueLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, "bookings_42", `{"oops":true}`))

	bookings, err := services.NewLedgerService(store, keys, nil, nil).Load(ctx, "42")

	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestLedger_StorageFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewKVStore(t)
	ledger := services.NewLedgerService(store, keys, nil, nil)

	store.On("Get", ctx, "bookings_42").Return("", false, nil).Once()
	store.On("Set", ctx, "bookings_42", mock.AnythingOfType("string")).Return(errors.New("quota exceeded")).Once()

	err := ledger.Append(ctx, "42", newBooking("b1", domain.BookingPending))
	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))

	store.On("Get", ctx, "bookings_42").Return("", false, errors.New("unavailable"))

	bookings, err := ledger.Load(ctx, "42")
	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))
	require.Len(t, bookings, 1)
	assert.Equal(t, "b1", bookings[0].ID)

	found, err := ledger.SetStatus(ctx, "42", "b1", domain.BookingCancelled)
	assert.True(t, found)
	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))

	bookings, _ = ledger.Load(ctx, "42")
	assert.Equal(t, domain.BookingCancelled, bookings[0].Status)
}

func TestLedger_RejectsEmptyUser(t *testing.T) {
	ledger := services.NewLedgerService(memory.NewKVStore(), keys, nil, nil)

	_, err := ledger.Load(context.Background(), "")

	assert.True(t, domain.IsConfigurationError(err))
}

func TestLedger_ConcurrentAppendsAreSerialized(t *testing.T) {
	ctx := context.Background()
	ledger := services.NewLedgerService(memory.NewKVStore(), keys, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ledger.Append(ctx, "42", newBooking(fmt.Sprintf("b%d", i), domain.BookingConfirmed))
		}(i)
	}
	wg.Wait()

	bookings, err := ledger.Load(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, bookings, 50)
}
