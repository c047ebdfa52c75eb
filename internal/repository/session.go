package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sitecraft/sitecraft-identity/internal/model"
)

// Column widths of the client-supplied audit fields. Longer values are
// clamped so a hostile header cannot fail the insert in strict mode.
const (
	maxIPAddressLen   = 64
	maxUserAgentLen   = 512
	maxDescriptionLen = 1000
)

// clamp returns at most n runes of s.
func clamp(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// HashToken returns the lookup key stored for a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionRepository handles session persistence operations. Sessions are
// audit records and are never consulted for authorization.
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create records a token issuance.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `INSERT INTO sessions (user_id, token_hash, ip_address, user_agent, expires_at) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		s.UserID, s.TokenHash, clamp(s.IPAddress, maxIPAddressLen), clamp(s.UserAgent, maxUserAgentLen), s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	s.ID = id
	return nil
}

// TouchActivity sets last_activity on the session issued for tokenHash.
func (r *SessionRepository) TouchActivity(ctx context.Context, tokenHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_activity = ? WHERE token_hash = ?`, at, tokenHash)
	if err != nil {
		return fmt.Errorf("updating session activity: %w", err)
	}
	return nil
}
