package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// BookingRecord is the persisted JSON layout of a Booking. Stored values are
// untrusted, so required fields are pointers and checked by ToBooking.
type BookingRecord struct {
	ID              *string        `json:"id"`
	EventID         string         `json:"eventId"`
	EventTitle      *string        `json:"eventTitle"`
	EventDate       string         `json:"eventDate"`
	EventTime       string         `json:"eventTime"`
	EventLocation   string         `json:"eventLocation"`
	EventImage      string         `json:"eventImage"`
	Category        string         `json:"category"`
	NumberOfTickets int            `json:"numberOfTickets"`
	TotalAmount     json.Number    `json:"totalAmount"`
	BookingDate     string         `json:"bookingDate"`
	Status          *BookingStatus `json:"status"`
	TicketID        string         `json:"ticketId"`
	PaymentMethod   string         `json:"paymentMethod,omitempty"`
}

func NewBookingRecord(b Booking) BookingRecord {
	id := b.ID
	title := b.EventTitle
	status := b.Status

	return BookingRecord{
		ID:              &id,
		EventID:         b.EventID,
		EventTitle:      &title,
		EventDate:       b.EventDate,
		EventTime:       b.EventTime,
		EventLocation:   b.EventLocation,
		EventImage:      b.EventImage,
		Category:        b.Category,
		NumberOfTickets: b.NumberOfTickets,
		TotalAmount:     json.Number(b.TotalAmount.String()),
		BookingDate:     b.BookingDate,
		Status:          &status,
		TicketID:        b.TicketID,
		PaymentMethod:   b.PaymentMethod,
	}
}

func (r BookingRecord) ToBooking() (Booking, error) {
	if r.ID == nil || *r.ID == "" {
		return Booking{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if r.EventTitle == nil || *r.EventTitle == "" {
		return Booking{}, fmt.Errorf("%w: booking %s missing eventTitle", ErrMalformedRecord, *r.ID)
	}
	if r.Status == nil {
		return Booking{}, fmt.Errorf("%w: booking %s missing status", ErrMalformedRecord, *r.ID)
	}
	if !r.Status.IsValid() {
		return Booking{}, fmt.Errorf("%w: booking %s has unknown status %q", ErrMalformedRecord, *r.ID, *r.Status)
	}

	amount := decimal.Zero
	if r.TotalAmount != "" {
		parsed, err := decimal.NewFromString(r.TotalAmount.String())
		if err != nil {
			return Booking{}, fmt.Errorf("%w: booking %s totalAmount: %v", ErrMalformedRecord, *r.ID, err)
		}
		amount = parsed
	}

	return Booking{
		ID:              *r.ID,
		EventID:         r.EventID,
		EventTitle:      *r.EventTitle,
		EventDate:       r.EventDate,
		EventTime:       r.EventTime,
		EventLocation:   r.EventLocation,
		EventImage:      r.EventImage,
		Category:        r.Category,
		NumberOfTickets: r.NumberOfTickets,
		TotalAmount:     amount,
		BookingDate:     r.BookingDate,
		Status:          *r.Status,
		TicketID:        r.TicketID,
		PaymentMethod:   r.PaymentMethod,
	}, nil
}

// MarshalJSON writes a Booking in its persisted layout so API responses and
// stored ledgers share one shape.
func (b Booking) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewBookingRecord(b))
}

func (b *Booking) UnmarshalJSON(data []byte) error {
	var r BookingRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	booking, err := r.ToBooking()
	if err != nil {
		return err
	}

	*b = booking
	return nil
}
