package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports"
)

var ErrDeclined = domain.ErrPaymentDeclined

// Simulated stands in for a payment provider: it waits for a fixed delay and
// approves every non-negative charge.
type Simulated struct {
	delay time.Duration
	log   *slog.Logger
}

func NewSimulated(delay time.Duration, log *slog.Logger) *Simulated {
	if log == nil {
		log = slog.Default()
	}
	return &Simulated{delay: delay, log: log}
}

func (p *Simulated) Charge(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %s", ErrDeclined, req.Amount)
	}

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	ref := "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	p.log.Debug("simulated payment approved", "user_id", req.UserID, "event_id", req.EventID, "method", req.Method, "amount", req.Amount.StringFixed(2), "reference", ref)

	return &ports.PaymentResult{Reference: ref}, nil
}
