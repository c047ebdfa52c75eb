package model

import "time"

// RegistrationEnergy is the balance granted to every new account.
const RegistrationEnergy int64 = 500

// User represents a user in the database.
type User struct {
	ID             int64
	Email          string
	Nickname       string
	PasswordHash   string
	IsAdmin        bool
	Energy         int64
	TotalProjects  int64
	TotalPublishes int64
	CreatedAt      time.Time
	LastLogin      *time.Time
}

// Session records one token issuance. It is an audit record only.
type Session struct {
	ID        int64
	UserID    int64
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ClientInfo is the request metadata stored alongside sessions and logs.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,max=255,email,maildomain"`
	Nickname string `json:"nickname" validate:"min=3,max=100"`
	Password string `json:"password" validate:"min=6,max=1024"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents an authentication response with a JWT token and user info.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"is_admin"`
	Energy   int64  `json:"energy"`
}

// ProfileResponse is the "who am I" payload.
type ProfileResponse struct {
	User ProfileUser `json:"user"`
}

// ProfileUser extends UserResponse with the project counters.
type ProfileUser struct {
	UserResponse
	TotalProjects  int64 `json:"total_projects"`
	TotalPublishes int64 `json:"total_publishes"`
}

// NewUserResponse strips a User down to its public fields.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		IsAdmin:  u.IsAdmin,
		Energy:   u.Energy,
	}
}
