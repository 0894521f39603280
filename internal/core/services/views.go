package services

import (
	"strconv"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/query"
)

func text[T any](f func(T) string) query.Field[T] {
	return query.Field[T]{Kind: query.KindString, Text: f}
}

func date[T any](f func(T) string) query.Field[T] {
	return query.Field[T]{Kind: query.KindDate, Text: f}
}

func number[T any](f func(T) float64) query.Field[T] {
	return query.Field[T]{
		Kind:   query.KindNumber,
		Text:   func(v T) string { return strconv.FormatFloat(f(v), 'f', -1, 64) },
		Number: f,
	}
}

var BookingSchema = query.Schema[domain.Booking]{
	Fields: map[string]query.Field[domain.Booking]{
		"id":              text(func(b domain.Booking) string { return b.ID }),
		"eventId":         text(func(b domain.Booking) string { return b.EventID }),
		"eventTitle":      text(func(b domain.Booking) string { return b.EventTitle }),
		"eventLocation":   text(func(b domain.Booking) string { return b.EventLocation }),
		"category":        text(func(b domain.Booking) string { return b.Category }),
		"ticketId":        text(func(b domain.Booking) string { return b.TicketID }),
		"status":          text(func(b domain.Booking) string { return string(b.Status) }),
		"paymentMethod":   text(func(b domain.Booking) string { return b.PaymentMethod }),
		"eventDate":       date(func(b domain.Booking) string { return b.EventDate }),
		"bookingDate":     date(func(b domain.Booking) string { return b.BookingDate }),
		"totalAmount":     number(func(b domain.Booking) float64 { return b.TotalAmount.InexactFloat64() }),
		"numberOfTickets": number(func(b domain.Booking) float64 { return float64(b.NumberOfTickets) }),
	},
	Search:       []string{"eventTitle", "eventLocation", "ticketId", "category"},
	DateField:    "eventDate",
	NumericField: "totalAmount",
}

var EventSchema = query.Schema[domain.Event]{
	Fields: map[string]query.Field[domain.Event]{
		"id":          text(func(e domain.Event) string { return e.ID }),
		"title":       text(func(e domain.Event) string { return e.Title }),
		"description": text(func(e domain.Event) string { return e.Description }),
		"location":    text(func(e domain.Event) string { return e.Location }),
		"category":    text(func(e domain.Event) string { return e.Category }),
		"time":        text(func(e domain.Event) string { return e.Time }),
		"date":        date(func(e domain.Event) string { return e.Date }),
		"price":       number(func(e domain.Event) float64 { return e.Price.InexactFloat64() }),
	},
	Search:       []string{"title", "description", "location", "category"},
	DateField:    "date",
	NumericField: "price",
}

var UserSchema = query.Schema[domain.User]{
	Fields: map[string]query.Field[domain.User]{
		"id":        text(func(u domain.User) string { return u.ID }),
		"name":      text(func(u domain.User) string { return u.Name }),
		"email":     text(func(u domain.User) string { return u.Email }),
		"role":      text(func(u domain.User) string { return u.Role }),
		"createdAt": date(func(u domain.User) string { return u.CreatedAt }),
	},
	Search:    []string{"name", "email"},
	DateField: "createdAt",
}
