package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sitecraft/sitecraft-identity/internal/crypto"
	"github.com/sitecraft/sitecraft-identity/internal/repository"
)

// Gate resolves bearer tokens to identities and checks admin privilege.
type Gate struct {
	tokens *crypto.TokenIssuer
	users  *repository.UserRepository
}

// NewGate creates a new Gate.
func NewGate(tokens *crypto.TokenIssuer, users *repository.UserRepository) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate verifies token without touching storage.
func (g *Gate) Authenticate(token string) (*crypto.Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		slog.Debug("token rejected", "reason", err)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthorizeAdmin authenticates token and then re-reads the caller's admin
// flag, so a revoked admin is refused even with a token claiming otherwise.
func (g *Gate) AuthorizeAdmin(ctx context.Context, token string) (int64, error) {
	claims, err := g.Authenticate(token)
	if err != nil {
		return 0, err
	}

	isAdmin, err := g.users.IsAdmin(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrForbidden
		}
		return 0, fmt.Errorf("checking admin flag: %w", err)
	}
	if !isAdmin {
		return 0, ErrForbidden
	}
	return claims.UserID, nil
}
