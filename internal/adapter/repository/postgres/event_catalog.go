package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/srgjo27/event_ledger/internal/core/domain"
)

const eventColumns = `
	id, title, COALESCE(description, ''), to_char(event_date, 'YYYY-MM-DD'),
	COALESCE(to_char(event_time, 'HH24:MI'), ''), COALESCE(location, ''),
	COALESCE(image_url, ''), COALESCE(category, ''), price
`

type EventCatalog struct {
	db *sql.DB
}

func NewEventCatalog(db *sql.DB) *EventCatalog {
	return &EventCatalog{db: db}
}

func (r *EventCatalog) FindEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var event domain.Event
	err := scanEvent(r.db.QueryRowContext(ctx, query, eventID), &event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
		}
		return nil, err
	}

	return &event, nil
}

func (r *EventCatalog) ListEvents(ctx context.Context) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY event_date, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, e *domain.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.Image,
		&e.Category,
		&e.Price,
	)
}
