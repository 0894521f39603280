package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/event_ledger/internal/adapter/repository/memory"
	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/core/ports/mocks"
	"github.com/srgjo27/event_ledger/internal/core/query"
	"github.com/srgjo27/event_ledger/internal/core/services"
)

var summerFest = &domain.Event{
	ID:       "evt-1",
	Title:    "Summer Music Fest",
	Date:     "2024-07-12",
	Time:     "18:00",
	Location: "Riverside Park",
	Image:    "/img/summer.jpg",
	Category: "music",
	Price:    decimal.RequireFromString("49.99"),
}

var validCard = &services.CardDetails{HolderName: "Ada Lovelace", Number: "4242 4242 4242 4242", Expiry: "12/29", CVV: "123"}

type bookingFixture struct {
	service  *services.BookingService
	ledger   *services.LedgerService
	store    *memory.KVStore
	catalog  *mocks.EventCatalog
	payments *mocks.PaymentProcessor
}

func newBookingFixture(t *testing.T) bookingFixture {
	store := memory.NewKVStore()
	ledger := services.NewLedgerService(store, keys, nil, nil)
	catalog := mocks.NewEventCatalog(t)
	payments := mocks.NewPaymentProcessor(t)
	tickets := services.NewTicketIDGenerator(services.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	}))

	service := services.NewBookingService(ledger, catalog, payments, tickets, services.BookingOptions{
		ServiceFee:           decimal.RequireFromString("2.50"),
		MaxTicketsPerBooking: 6,
	}, nil, nil)

	return bookingFixture{service: service, ledger: ledger, store: store, catalog: catalog, payments: payments}
}

func TestCreateBooking_Card(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.catalog.On("FindEvent", ctx, "evt-1").Return(summerFest, nil)
	f.payments.On("Charge", ctx, mock.MatchedBy(func(req ports.PaymentRequest) bool {
		return req.Method == "card" && req.Amount.Equal(decimal.RequireFromString("102.48"))
	})).Return(&ports.PaymentResult{Reference: "PAY-1"}, nil)

	resp, err := f.service.CreateBooking(ctx, "42", services.CreateBookingRequest{
		EventID:         "evt-1",
		NumberOfTickets: 2,
		PaymentMethod:   "card",
		Card:            validCard,
	})

	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "PAY-1", resp.PaymentReference)

	b := resp.Booking
	assert.Regexp(t, `^booking_42_\d+_[0-9a-f]{32}$`, b.ID)
	assert.Regexp(t, `^SUM-\d{6}-[A-Z0-9]{3}$`, b.TicketID)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, "102.48", b.TotalAmount.String())
	assert.Equal(t, "2024-06-01T10:00:00Z", b.BookingDate)
	assert.Equal(t, "Riverside Park", b.EventLocation)
	assert.Equal(t, "/img/summer.jpg", b.EventImage)

	stored, err := f.ledger.Load(ctx, "42")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, b.ID, stored[0].ID)
}

func TestCreateBooking_VenueIsPendingWithoutCharge(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.catalog.On("FindEvent", ctx, "evt-1").Return(summerFest, nil)

	resp, err := f.service.CreateBooking(ctx, "42", services.CreateBookingRequest{
		EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "venue",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, resp.Booking.Status)
	f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	cases := map[string]services.CreateBookingRequest{
		"no event":        {NumberOfTickets: 1, PaymentMethod: "venue"},
		"zero tickets":    {EventID: "evt-1", PaymentMethod: "venue"},
		"too many":        {EventID: "evt-1", NumberOfTickets: 7, PaymentMethod: "venue"},
		"no method":       {EventID: "evt-1", NumberOfTickets: 1},
		"unknown method":  {EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "crypto"},
		"card missing":    {EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "card"},
		"card bad number": {EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "card", Card: &services.CardDetails{HolderName: "A", Number: "4242", Expiry: "12/29", CVV: "123"}},
		"card bad expiry": {EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "card", Card: &services.CardDetails{HolderName: "A", Number: "4242424242424242", Expiry: "2029-12", CVV: "123"}},
		"card bad cvv":    {EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "card", Card: &services.CardDetails{HolderName: "A", Number: "4242424242424242", Expiry: "12/29", CVV: "12a"}},
		"paypal no email": {EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "paypal"},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			f := newBookingFixture(t)

			resp, err := f.service.CreateBooking(context.Background(), "42", req)

			assert.Nil(t, resp)
			assert.True(t, domain.IsValidationError(err), "got %v", err)
		})
	}
}

func TestCreateBooking_UnknownEvent(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.catalog.On("FindEvent", ctx, "evt-9").Return(nil, domain.ErrNotFound)

	_, err := f.service.CreateBooking(ctx, "42", services.CreateBookingRequest{EventID: "evt-9", NumberOfTickets: 1, PaymentMethod: "venue"})

	assert.True(t, domain.IsValidationError(err))
}

func TestCreateBooking_PaymentFailureStoresNothing(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.catalog.On("FindEvent", ctx, "evt-1").Return(summerFest, nil)
	f.payments.On("Charge", ctx, mock.Anything).Return(nil, errors.New("card declined"))

	_, err := f.service.CreateBooking(ctx, "42", services.CreateBookingRequest{
		EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "paypal", PayPalEmail: "ada@example.com",
	})

	assert.ErrorContains(t, err, "payment failed")
	_, found, _ := f.store.Get(ctx, "bookings_42")
	assert.False(t, found)
}

func TestCreateBooking_StorageFailureIsNonFatal(t *testing.T) {
	store := mocks.NewKVStore(t)
	catalog := mocks.NewEventCatalog(t)
	ctx := context.Background()
	ledger := services.NewLedgerService(store, keys, nil, nil)
	service := services.NewBookingService(ledger, catalog, nil, nil, services.BookingOptions{}, nil, nil)

	catalog.On("FindEvent", ctx, "evt-1").Return(summerFest, nil)
	store.On("Get", ctx, "bookings_42").Return("", false, errors.New("private mode"))

	resp, err := service.CreateBooking(ctx, "42", services.CreateBookingRequest{EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "venue"})

	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	assert.Equal(t, "49.99", resp.Booking.TotalAmount.String())

	result, err := service.ListBookings(ctx, "42", query.Spec{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Append(ctx, "42", newBooking("b1", domain.BookingPending)))

	require.NoError(t, f.service.CancelBooking(ctx, "42", "b1"))
	require.NoError(t, f.service.CancelBooking(ctx, "42", "b1"), "cancelling twice is a no-op")

	err := f.service.CancelBooking(ctx, "42", "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	bookings, _ := f.ledger.Load(ctx, "42")
	assert.Equal(t, domain.BookingCancelled, bookings[0].Status)
}

func TestListBookings_FiltersAndSorts(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	a := newBooking("a", domain.BookingConfirmed)
	a.EventTitle, a.EventDate, a.TotalAmount = "Jazz Night", "2024-08-01", decimal.NewFromInt(40)
	b := newBooking("b", domain.BookingCancelled)
	b.EventTitle, b.EventDate, b.TotalAmount = "Rock Arena", "2024-07-01", decimal.NewFromInt(90)
	c := newBooking("c", domain.BookingConfirmed)
	c.EventTitle, c.EventDate, c.TotalAmount = "Jazz Brunch", "2024-06-01", decimal.NewFromInt(25)
	for _, bk := range []domain.Booking{a, b, c} {
		require.NoError(t, f.ledger.Append(ctx, "42", bk))
	}

	res, err := f.service.ListBookings(ctx, "42", query.Spec{
		SearchTerm: "jazz",
		Filters:    map[string]string{"status": "confirmed", "category": "all"},
		SortBy:     "eventDate",
		SortOrder:  query.Asc,
		Page:       1,
		PageSize:   10,
	})
	require.NoError(t, err)
	require.Len(t, res.Page, 2)
	assert.Equal(t, "c", res.Page[0].ID)
	assert.Equal(t, "a", res.Page[1].ID)

	_, err = f.service.ListBookings(ctx, "42", query.Spec{Page: 1, PageSize: 0})
	assert.True(t, domain.IsConfigurationError(err))
}

func TestCreateBooking_RejectsNegativePrice(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	refund := *summerFest
	refund.ID, refund.Price = "evt-neg", decimal.NewFromInt(-50)
	f.catalog.On("FindEvent", ctx, "evt-neg").Return(&refund, nil)

	for _, method := range []string{"venue", "paypal"} {
		resp, err := f.service.CreateBooking(ctx, "42", services.CreateBookingRequest{
			EventID: "evt-neg", NumberOfTickets: 2, PaymentMethod: method, PayPalEmail: "ada@example.com",
		})

		assert.Nil(t, resp)
		assert.True(t, domain.IsValidationError(err), "%s: got %v", method, err)
	}

	f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	_, found, _ := f.store.Get(ctx, "bookings_42")
	assert.False(t, found)
}

func TestCreateBooking_DeclinedPaymentIsRecognisable(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.catalog.On("FindEvent", ctx, "evt-1").Return(summerFest, nil)
	f.payments.On("Charge", ctx, mock.Anything).Return(nil, fmt.Errorf("%w: insufficient funds", domain.ErrPaymentDeclined))

	_, err := f.service.CreateBooking(ctx, "42", services.CreateBookingRequest{
		EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "paypal", PayPalEmail: "ada@example.com",
	})

	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
}

func TestNewBookingService_NegativeFeeIsIgnored(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewEventCatalog(t)
	ledger := services.NewLedgerService(memory.NewKVStore(), keys, nil, nil)
	service := services.NewBookingService(ledger, catalog, nil, nil, services.BookingOptions{ServiceFee: decimal.NewFromInt(-100)}, nil, nil)
	catalog.On("FindEvent", ctx, "evt-1").Return(summerFest, nil)

	resp, err := service.CreateBooking(ctx, "42", services.CreateBookingRequest{EventID: "evt-1", NumberOfTickets: 1, PaymentMethod: "venue"})

	require.NoError(t, err)
	assert.Equal(t, "49.99", resp.Booking.TotalAmount.String())
}
