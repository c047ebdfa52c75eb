package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sitecraft/sitecraft-identity/internal/config"
	"github.com/sitecraft/sitecraft-identity/internal/crypto"
	"github.com/sitecraft/sitecraft-identity/internal/model"
	"github.com/sitecraft/sitecraft-identity/internal/repository"
)

// ErrAdminNicknameTaken is returned when the configured admin nickname
// belongs to an account with a different email.
var ErrAdminNicknameTaken = errors.New("admin nickname is held by another account")

// Bootstrapper provisions the configured administrator account.
type Bootstrapper struct {
	users *repository.UserRepository
	admin config.AdminConfig
}

// NewBootstrapper creates a new Bootstrapper.
func NewBootstrapper(users *repository.UserRepository, admin config.AdminConfig) *Bootstrapper {
	return &Bootstrapper{users: users, admin: admin}
}

// EnsureAdminExists creates the administrator account if no account with the
// configured email exists. An existing account is never modified. It reports
// whether a row was created.
func (b *Bootstrapper) EnsureAdminExists(ctx context.Context) (bool, error) {
	hash, err := crypto.HashPassword(b.admin.Password)
	if err != nil {
		return false, fmt.Errorf("hashing admin password: %w", err)
	}

	created, err := b.users.InsertIfAbsent(ctx, &model.User{
		Email:        b.admin.Email,
		Nickname:     b.admin.Nickname,
		PasswordHash: hash,
		IsAdmin:      true,
		Energy:       b.admin.Energy,
	})
	if err != nil {
		return false, err
	}
	if created {
		slog.Info("admin account created", "email", b.admin.Email)
		return true, nil
	}

	// The insert was absorbed by a unique key. Make sure it was the email.
	if _, err := b.users.GetByEmail(ctx, b.admin.Email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, fmt.Errorf("%w: %q", ErrAdminNicknameTaken, b.admin.Nickname)
		}
		return false, err
	}

	slog.Info("admin account already exists", "email", b.admin.Email)
	return false, nil
}
