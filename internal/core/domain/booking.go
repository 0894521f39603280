package domain

import (
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingConfirmed, BookingPending, BookingCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Re-applying the current status is allowed and changes nothing.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}

	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	}
	return false
}

type Booking struct {
	ID              string
	EventID         string
	EventTitle      string
	EventDate       string
	EventTime       string
	EventLocation   string
	EventImage      string
	Category        string
	NumberOfTickets int
	TotalAmount     decimal.Decimal
	BookingDate     string
	Status          BookingStatus
	TicketID        string
	PaymentMethod   string
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}
