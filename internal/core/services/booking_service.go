package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/core/query"
	"github.com/srgjo27/event_ledger/internal/platform/monitoring"
)

const (
	PaymentCard   = "card"
	PaymentPayPal = "paypal"
	PaymentVenue  = "venue"
)

type CardDetails struct {
	HolderName string `json:"holderName"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

type CreateBookingRequest struct {
	EventID         string       `json:"eventId"`
	NumberOfTickets int          `json:"numberOfTickets"`
	PaymentMethod   string       `json:"paymentMethod"`
	Card            *CardDetails `json:"card,omitempty"`
	PayPalEmail     string       `json:"paypalEmail,omitempty"`
}

type CreateBookingResponse struct {
	Booking          domain.Booking `json:"booking"`
	PaymentReference string         `json:"paymentReference,omitempty"`
	Persisted        bool           `json:"persisted"`
}

type BookingOptions struct {
	ServiceFee           decimal.Decimal
	MaxTicketsPerBooking int
}

type BookingService struct {
	ledger   *LedgerService
	catalog  ports.EventCatalog
	payments ports.PaymentProcessor
	tickets  *TicketIDGenerator
	opts     BookingOptions
	now      func() time.Time
	log      *slog.Logger
	monitor  *monitoring.Monitor
}

func NewBookingService(ledger *LedgerService, catalog ports.EventCatalog, payments ports.PaymentProcessor, tickets *TicketIDGenerator, opts BookingOptions, log *slog.Logger, monitor *monitoring.Monitor) *BookingService {
	if log == nil {
		log = slog.Default()
	}
	if tickets == nil {
		tickets = NewTicketIDGenerator()
	}
	if opts.MaxTicketsPerBooking <= 0 {
		opts.MaxTicketsPerBooking = 10
	}
	if opts.ServiceFee.IsNegative() {
		opts.ServiceFee = decimal.Zero
	}

	return &BookingService{
		ledger:   ledger,
		catalog:  catalog,
		payments: payments,
		tickets:  tickets,
		opts:     opts,
		now:      tickets.now,
		log:      log,
		monitor:  monitor,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*CreateBookingResponse, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user", "no active user")
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	event, err := s.catalog.FindEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("eventId", "event not found")
		}
		return nil, fmt.Errorf("find event %s: %w", req.EventID, err)
	}
	if event == nil {
		return nil, domain.NewValidationError("eventId", "event not found")
	}
	if event.Price.IsNegative() {
		s.log.Error("catalog event has a negative price", "event_id", event.ID, "price", event.Price.String())
		return nil, domain.NewValidationError("eventId", "event is not available for booking")
	}

	total := event.Price.Mul(decimal.NewFromInt(int64(req.NumberOfTickets))).Add(s.opts.ServiceFee)

	method := strings.ToLower(req.PaymentMethod)
	status := domain.BookingConfirmed
	var reference string

	if method == PaymentVenue {
		status = domain.BookingPending
	} else {
		result, err := s.payments.Charge(ctx, ports.PaymentRequest{
			UserID:  userID,
			EventID: event.ID,
			Method:  method,
			Amount:  total,
		})
		if err != nil {
			s.monitor.TrackBookingCreated(method, "payment_failed")
			return nil, fmt.Errorf("payment failed: %w", err)
		}
		if result != nil {
			reference = result.Reference
		}
	}

	booking := domain.Booking{
		ID:              s.tickets.BookingID(userID),
		EventID:         event.ID,
		EventTitle:      event.Title,
		EventDate:       event.Date,
		EventTime:       event.Time,
		EventLocation:   event.Location,
		EventImage:      event.Image,
		Category:        event.Category,
		NumberOfTickets: req.NumberOfTickets,
		TotalAmount:     total,
		BookingDate:     s.now().UTC().Format(time.RFC3339Nano),
		Status:          status,
		TicketID:        s.tickets.Generate(event.Title),
		PaymentMethod:   method,
	}

	resp := &CreateBookingResponse{Booking: booking, PaymentReference: reference, Persisted: true}

	if err := s.ledger.Append(ctx, userID, booking); err != nil {
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			return nil, err
		}
		resp.Persisted = false
	}

	s.monitor.TrackBookingCreated(method, string(status))
	s.log.Info("booking created",
		"user_id", userID,
		"booking_id", booking.ID,
		"ticket_id", booking.TicketID,
		"event_id", event.ID,
		"tickets", booking.NumberOfTickets,
		"total", total.StringFixed(2),
		"persisted", resp.Persisted,
	)

	return resp, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID string) error {
	found, err := s.ledger.SetStatus(ctx, userID, bookingID, domain.BookingCancelled)
	if !found && err == nil {
		return fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
	}
	if err != nil && !(found && errors.Is(err, domain.ErrStorageUnavailable)) {
		return err
	}

	s.log.Info("booking cancelled", "user_id", userID, "booking_id", bookingID)
	return nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID string, spec query.Spec) (query.Result[domain.Booking], error) {
	started := time.Now()
	defer s.monitor.TrackQuery("bookings", started)

	bookings, err := s.ledger.Load(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrStorageUnavailable) {
		return query.Result[domain.Booking]{}, err
	}

	return query.Run(bookings, BookingSchema, spec)
}

func (s *BookingService) validate(req CreateBookingRequest) error {
	if strings.TrimSpace(req.EventID) == "" {
		return domain.NewValidationError("eventId", "is required")
	}
	if req.NumberOfTickets < 1 {
		return domain.NewValidationError("numberOfTickets", "must be at least 1")
	}
	if req.NumberOfTickets > s.opts.MaxTicketsPerBooking {
		return domain.NewValidationError("numberOfTickets",
			fmt.Sprintf("cannot exceed %d per booking", s.opts.MaxTicketsPerBooking))
	}

	switch strings.ToLower(req.PaymentMethod) {
	case PaymentCard:
		c := req.Card
		if c == nil {
			return domain.NewValidationError("card", "card details are required")
		}
		if strings.TrimSpace(c.HolderName) == "" {
			return domain.NewValidationError("card.holderName", "is required")
		}
		if digits := strings.ReplaceAll(c.Number, " ", ""); len(digits) < 12 || len(digits) > 19 || !isDigits(digits) {
			return domain.NewValidationError("card.number", "must be 12 to 19 digits")
		}
		if _, err := time.Parse("01/06", c.Expiry); err != nil {
			return domain.NewValidationError("card.expiry", "must be MM/YY")
		}
		if len(c.CVV) < 3 || len(c.CVV) > 4 || !isDigits(c.CVV) {
			return domain.NewValidationError("card.cvv", "must be 3 or 4 digits")
		}
	case PaymentPayPal:
		if !strings.Contains(req.PayPalEmail, "@") {
			return domain.NewValidationError("paypalEmail", "a valid email is required")
		}
	case PaymentVenue:
	case "":
		return domain.NewValidationError("paymentMethod", "is required")
	default:
		return domain.NewValidationError("paymentMethod", fmt.Sprintf("unsupported method %q", req.PaymentMethod))
	}

	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
