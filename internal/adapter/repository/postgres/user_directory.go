package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/srgjo27/event_ledger/internal/core/domain"
)

type UserDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (r *UserDirectory) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `
	SELECT id, name, email, role, created_at
	FROM users
	ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		var createdAt sql.NullTime

		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &createdAt); err != nil {
			return nil, err
		}

		if createdAt.Valid {
			user.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
		}

		users = append(users, user)
	}

	return users, rows.Err()
}
