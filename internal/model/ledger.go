package model

import "time"

// TransactionType enumerates energy_transactions.transaction_type.
type TransactionType string

const (
	TransactionAdminAward TransactionType = "admin_award"
)

// ActionType enumerates user_logs.action_type.
type ActionType string

const (
	ActionRegister       ActionType = "register"
	ActionLogin          ActionType = "login"
	ActionEnergyReceived ActionType = "energy_received"
	ActionUserBanned     ActionType = "user_banned"
)

// EnergyTransaction is one append-only ledger entry.
type EnergyTransaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Amount          int64           `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     string          `json:"description"`
	AdminID         *int64          `json:"admin_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// UserLog is one append-only audit entry.
type UserLog struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	ActionType        ActionType `json:"action_type"`
	ActionDescription string     `json:"action_description"`
	ProjectID         *string    `json:"project_id"`
	EnergyChange      int64      `json:"energy_change"`
	IPAddress         string     `json:"ip_address"`
	CreatedAt         time.Time  `json:"created_at"`
}

// UserLogEntry is a UserLog joined with its owner for the admin listing.
type UserLogEntry struct {
	UserLog
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}
