package model

import "time"

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500

	// MaxAwardAmount mirrors the lte bound on GiveEnergyRequest.Amount.
	MaxAwardAmount = 1_000_000_000_000

	defaultAwardReason = "Admin award"
)

// GiveEnergyRequest represents an admin energy award. TargetEmail matches
// either the target's email or nickname.
type GiveEnergyRequest struct {
	TargetEmail string `json:"target_email" validate:"required,max=255"`
	Amount      int64  `json:"amount" validate:"gt=0,lte=1000000000000"`
	Reason      string `json:"reason" validate:"max=500"`
}

// GiveEnergyResponse represents the outcome of an energy award.
type GiveEnergyResponse struct {
	Success    bool   `json:"success"`
	TargetUser string `json:"target_user"`
	Amount     int64  `json:"amount"`
	NewEnergy  int64  `json:"new_energy"`
}

// BanUserRequest represents an admin account removal. TargetEmail matches
// either the target's email or nickname.
type BanUserRequest struct {
	TargetEmail string `json:"target_email" validate:"required,max=255"`
}

// BanUserResponse represents the outcome of an account removal.
type BanUserResponse struct {
	Success bool   `json:"success"`
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

// AdminUser is one row of the admin user listing.
type AdminUser struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Nickname       string     `json:"nickname"`
	Energy         int64      `json:"energy"`
	IsAdmin        bool       `json:"is_admin"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login"`
	TotalProjects  int64      `json:"total_projects"`
	TotalPublishes int64      `json:"total_publishes"`
}

// NewAdminUser converts a User to its admin listing form.
func NewAdminUser(u *User) AdminUser {
	return AdminUser{
		ID:             u.ID,
		Email:          u.Email,
		Nickname:       u.Nickname,
		Energy:         u.Energy,
		IsAdmin:        u.IsAdmin,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
		TotalProjects:  u.TotalProjects,
		TotalPublishes: u.TotalPublishes,
	}
}

// UsersResponse wraps the admin user listing.
type UsersResponse struct {
	Users []AdminUser `json:"users"`
}

// Stats are the aggregate counters shown on the admin dashboard.
type Stats struct {
	TotalUsers             int64 `json:"total_users"`
	TotalProjects          int64 `json:"total_projects"`
	TotalPublished         int64 `json:"total_published"`
	TotalEnergyDistributed int64 `json:"total_energy_distributed"`
}

// LogFilter narrows the audit and ledger listings. UserID zero means all users.
type LogFilter struct {
	UserID int64
	Limit  int
}

// LogsResponse wraps the audit log listing.
type LogsResponse struct {
	Logs []UserLogEntry `json:"logs"`
}

// TransactionsResponse wraps the ledger listing.
type TransactionsResponse struct {
	Transactions []EnergyTransaction `json:"transactions"`
}
