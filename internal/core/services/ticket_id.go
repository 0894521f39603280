package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TicketIDGenerator produces the short ticket code printed on receipts,
// e.g. SUM-123456-X7K. Codes are not checked for collisions; the booking ID
// is the lookup key.
type TicketIDGenerator struct {
	now    func() time.Time
	random io.Reader
}

type TicketIDOption func(*TicketIDGenerator)

func WithClock(now func() time.Time) TicketIDOption {
	return func(g *TicketIDGenerator) { g.now = now }
}

func WithRandom(r io.Reader) TicketIDOption {
	return func(g *TicketIDGenerator) { g.random = r }
}

func NewTicketIDGenerator(opts ...TicketIDOption) *TicketIDGenerator {
	g := &TicketIDGenerator{now: time.Now, random: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *TicketIDGenerator) Generate(eventTitle string) string {
	millis := g.now().UnixMilli()
	return fmt.Sprintf("%s-%06d-%s", titlePrefix(eventTitle), millis%1_000_000, g.suffix(3))
}

// BookingID builds the primary key of a new booking. The random part is a
// full UUID so retried submissions never collide.
func (g *TicketIDGenerator) BookingID(userID string) string {
	u, err := uuid.NewRandomFromReader(g.random)
	if err != nil {
		u = uuid.New()
	}
	return fmt.Sprintf("booking_%s_%d_%s", userID, g.now().UnixMilli(), strings.ReplaceAll(u.String(), "-", ""))
}

// unbiasedLimit is the largest multiple of 36 that fits in a byte; bytes at
// or above it are discarded so every symbol is equally likely.
const unbiasedLimit = 256 / len(base36Upper) * len(base36Upper)

func (g *TicketIDGenerator) suffix(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(out) < n {
		chunk := buf[:n-len(out)]
		if _, err := io.ReadFull(g.random, chunk); err != nil {
			_, _ = rand.Read(chunk)
		}
		for _, b := range chunk {
			if int(b) >= unbiasedLimit {
				continue
			}
			out = append(out, base36Upper[int(b)%len(base36Upper)])
		}
	}
	return string(out)
}

func titlePrefix(title string) string {
	runes := []rune(strings.ToUpper(strings.TrimSpace(title)))
	if len(runes) > 3 {
		runes = runes[:3]
	}

	prefix := string(runes)
	if n := len(runes); n < 3 {
		prefix += strings.Repeat("X", 3-n)
	}
	return prefix
}
