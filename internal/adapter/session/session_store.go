// Package session keeps the single active login in the key-value store under
// the "user" and "token" keys, next to the ledgers it identifies.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/srgjo27/event_ledger/internal/core/domain"
	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/core/services"
)

// Identity reads the active login. It is what the lifecycle manager sees;
// Store adds the operations that change the login.
type Identity struct {
	kv  ports.KVStore
	log *slog.Logger
}

func NewIdentity(kv ports.KVStore, log *slog.Logger) *Identity {
	if log == nil {
		log = slog.Default()
	}
	return &Identity{kv: kv, log: log}
}

// CurrentUser returns nil without an error when nobody is logged in or the
// stored record cannot be decoded.
func (i *Identity) CurrentUser(ctx context.Context) (*domain.User, error) {
	raw, found, err := i.kv.Get(ctx, services.SessionUserKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if !found {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		i.log.Warn("ignoring unreadable session record", "error", err)
		return nil, nil
	}
	return &user, nil
}

type Store struct {
	*Identity
	lifecycle     *services.LifecycleService
	clearOnLogout bool
}

func NewStore(kv ports.KVStore, lifecycle *services.LifecycleService, clearOnLogout bool, log *slog.Logger) *Store {
	return &Store{Identity: NewIdentity(kv, log), lifecycle: lifecycle, clearOnLogout: clearOnLogout}
}

// Authenticate resolves a bearer token to the active user. It returns nil
// when the token does not belong to the current session.
func (s *Store) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	stored, found, err := s.kv.Get(ctx, services.SessionTokenKey)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return nil, nil
	}

	return s.CurrentUser(ctx)
}

func (s *Store) Login(ctx context.Context, user domain.User) (string, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", domain.NewValidationError("id", "is required")
	}
	if strings.TrimSpace(user.Name) == "" {
		return "", domain.NewValidationError("name", "is required")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	token := uuid.NewString()
	if err := s.kv.Set(ctx, services.SessionUserKey, string(data)); err != nil {
		return "", fmt.Errorf("save session: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if err := s.kv.Set(ctx, services.SessionTokenKey, token); err != nil {
		return "", fmt.Errorf("save session token: %w: %w", domain.ErrStorageUnavailable, err)
	}

	s.lifecycle.InitializeForUser(ctx, user.ID)
	s.log.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return token, nil
}

func (s *Store) Logout(ctx context.Context) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.kv.Delete(ctx, services.SessionUserKey, services.SessionTokenKey); err != nil {
		return fmt.Errorf("clear session: %w: %w", domain.ErrStorageUnavailable, err)
	}

	if user != nil {
		if s.clearOnLogout {
			s.lifecycle.ClearForUser(ctx, user.ID)
		}
		s.log.Info("user logged out", "user_id", user.ID)
	}

	return nil
}
