package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sitecraft/sitecraft-identity/internal/crypto"
	"github.com/sitecraft/sitecraft-identity/internal/metrics"
	"github.com/sitecraft/sitecraft-identity/internal/model"
	"github.com/sitecraft/sitecraft-identity/internal/repository"
)

// AuthService handles registration, login and profile lookups.
type AuthService struct {
	store   *repository.Store
	tokens  *crypto.TokenIssuer
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAuthService creates a new AuthService. m may be nil.
func NewAuthService(store *repository.Store, tokens *crypto.TokenIssuer, m *metrics.Metrics) *AuthService {
	return &AuthService{
		store:   store,
		tokens:  tokens,
		metrics: m,
		now:     time.Now,
	}
}

// Register creates a new user account and returns an auth token.
//
// The user row is committed on its own. The session and audit rows follow
// in a second transaction whose failure is logged and counted but does not
// fail the registration: the account exists and can log in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, client model.ClientInfo) (model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return model.AuthResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		Nickname:     req.Nickname,
		PasswordHash: hash,
		Energy:       model.RegistrationEnergy,
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		s.metrics.AuthEvent("register", false)
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.AuthResponse{}, ErrAccountTaken
		}
		return model.AuthResponse{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issuing token: %w", err)
	}

	s.recordSession(ctx, user, token, expiresAt, client, &model.UserLog{
		ActionType:        model.ActionRegister,
		ActionDescription: "New user registered: " + user.Nickname,
		EnergyChange:      model.RegistrationEnergy,
	})
	s.metrics.AuthEvent("register", true)
	slog.Info("user registered", "user_id", user.ID)

	return model.AuthResponse{
		Token: token,
		User:  model.NewUserResponse(user),
	}, nil
}

// Login authenticates a user and returns an auth token. An unknown email and
// a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, client model.ClientInfo) (model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return model.AuthResponse{}, err
	}

	user, err := s.store.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			crypto.BurnVerify(req.Password)
			s.metrics.AuthEvent("login", false)
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		s.metrics.AuthEvent("login", false)
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	if err := s.store.Users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return model.AuthResponse{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issuing token: %w", err)
	}

	s.recordSession(ctx, user, token, expiresAt, client, &model.UserLog{
		ActionType:        model.ActionLogin,
		ActionDescription: "Signed in",
	})
	s.metrics.AuthEvent("login", true)

	return model.AuthResponse{
		Token: token,
		User:  model.NewUserResponse(user),
	}, nil
}

// WhoAmI returns the profile of the authenticated caller and marks the
// session as active.
func (s *AuthService) WhoAmI(ctx context.Context, token string, claims *crypto.Claims) (model.ProfileResponse, error) {
	if err := s.store.Sessions.TouchActivity(ctx, repository.HashToken(token), s.now().UTC()); err != nil {
		slog.Warn("session activity not recorded", "user_id", claims.UserID, "error", err)
		s.metrics.AuditWriteFailed("session_activity")
	}

	user, err := s.store.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.ProfileResponse{}, ErrUserNotFound
		}
		return model.ProfileResponse{}, err
	}

	return model.ProfileResponse{
		User: model.ProfileUser{
			UserResponse:   model.NewUserResponse(user),
			TotalProjects:  user.TotalProjects,
			TotalPublishes: user.TotalPublishes,
		},
	}, nil
}

// recordSession writes the session row and its audit entry together. It is
// best-effort: failures are logged and counted, never returned.
func (s *AuthService) recordSession(ctx context.Context, user *model.User, token string, expiresAt time.Time, client model.ClientInfo, entry *model.UserLog) {
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Sessions.Create(ctx, &model.Session{
			UserID:    user.ID,
			TokenHash: repository.HashToken(token),
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
			ExpiresAt: expiresAt,
		}); err != nil {
			return err
		}

		entry.UserID = user.ID
		entry.IPAddress = client.IPAddress
		return repos.Logs.Append(ctx, entry)
	})
	if err != nil {
		slog.Warn("session and audit entry not recorded",
			"user_id", user.ID, "action", entry.ActionType, "error", err)
		s.metrics.AuditWriteFailed(string(entry.ActionType))
	}
}
