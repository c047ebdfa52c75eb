package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sitecraft/sitecraft-identity/internal/model"
)

// UserLogRepository appends and reads audit entries.
type UserLogRepository struct {
	db DBTX
}

// NewUserLogRepository creates a new UserLogRepository.
func NewUserLogRepository(db DBTX) *UserLogRepository {
	return &UserLogRepository{db: db}
}

// Append writes one audit entry.
func (r *UserLogRepository) Append(ctx context.Context, l *model.UserLog) error {
	query := `INSERT INTO user_logs (user_id, action_type, action_description, project_id, energy_change, ip_address)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		l.UserID, string(l.ActionType), clamp(l.ActionDescription, maxDescriptionLen),
		l.ProjectID, l.EnergyChange, clamp(l.IPAddress, maxIPAddressLen),
	)
	if err != nil {
		return fmt.Errorf("inserting user log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	l.ID = id
	return nil
}

// List retrieves audit entries joined with their owner, newest first.
func (r *UserLogRepository) List(ctx context.Context, f model.LogFilter) ([]model.UserLogEntry, error) {
	query := `SELECT ul.id, ul.user_id, ul.action_type, ul.action_description, ul.project_id,
			ul.energy_change, ul.ip_address, ul.created_at, u.nickname, u.email
		FROM user_logs ul
		JOIN users u ON ul.user_id = u.id`
	args := []any{}
	if f.UserID > 0 {
		query += ` WHERE ul.user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY ul.created_at DESC, ul.id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing user logs: %w", err)
	}
	defer rows.Close()

	var entries []model.UserLogEntry
	for rows.Next() {
		var (
			e         model.UserLogEntry
			action    string
			projectID sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &action, &e.ActionDescription, &projectID,
			&e.EnergyChange, &e.IPAddress, &e.CreatedAt, &e.Nickname, &e.Email,
		); err != nil {
			return nil, err
		}
		e.ActionType = model.ActionType(action)
		if projectID.Valid {
			p := projectID.String
			e.ProjectID = &p
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
