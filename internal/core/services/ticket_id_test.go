package services_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/srgjo27/event_ledger/internal/core/services"
)

func TestTicketID_Pattern(t *testing.T) {
	g := services.NewTicketIDGenerator()

	assert.Regexp(t, `^SUM-\d{6}-[A-Z0-9]{3}$`, g.Generate("Summer Music Fest"))
}

func TestTicketID_Deterministic(t *testing.T) {
	clock := func() time.Time { return time.UnixMilli(1_700_000_123_456) }
	g := services.NewTicketIDGenerator(
		services.WithClock(clock),
		services.WithRandom(bytes.NewReader([]byte{0, 10, 35})),
	)

	assert.Equal(t, "JAZ-123456-0AZ", g.Generate("jazz night"))
}

func TestTicketID_SkipsBiasedBytes(t *testing.T) {
	clock := func() time.Time { return time.UnixMilli(7) }
	// 252..255 would map onto 0-3 a second time; they must be skipped.
	random := []byte{252, 0, 255, 253, 254, 1, 251}
	g := services.NewTicketIDGenerator(services.WithClock(clock), services.WithRandom(bytes.NewReader(random)))

	assert.Equal(t, "ROC-000007-01Z", g.Generate("Rock"))
}

func TestTicketID_ShortAndUnicodeTitles(t *testing.T) {
	clock := func() time.Time { return time.UnixMilli(42) }
	random := bytes.Repeat([]byte{1}, 12)
	g := services.NewTicketIDGenerator(services.WithClock(clock), services.WithRandom(bytes.NewReader(random)))

	assert.Equal(t, "AXX-000042-111", g.Generate("a"))
	assert.Equal(t, "XXX-000042-111", g.Generate("   "))
	assert.Equal(t, "ÉTÉ-000042-111", g.Generate("été en fête"))
	assert.Equal(t, "ROC-000042-111", g.Generate("Rock"))
}

func TestBookingID_Format(t *testing.T) {
	clock := func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	g := services.NewTicketIDGenerator(services.WithClock(clock))

	first := g.BookingID("42")
	second := g.BookingID("42")

	assert.Regexp(t, `^booking_42_1700000000000_[0-9a-f]{32}$`, first)
	assert.NotEqual(t, first, second)
}
