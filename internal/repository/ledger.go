package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sitecraft/sitecraft-identity/internal/model"
)

// LedgerRepository appends and reads energy transactions. Rows are never
// updated or deleted here.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append writes one ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, tx *model.EnergyTransaction) error {
	query := `INSERT INTO energy_transactions (user_id, amount, transaction_type, description, admin_id) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, tx.UserID, tx.Amount, string(tx.TransactionType), tx.Description, tx.AdminID)
	if err != nil {
		return fmt.Errorf("inserting energy transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	tx.ID = id
	return nil
}

// List retrieves ledger entries, newest first.
func (r *LedgerRepository) List(ctx context.Context, f model.LogFilter) ([]model.EnergyTransaction, error) {
	query := `SELECT id, user_id, amount, transaction_type, description, admin_id, created_at
		FROM energy_transactions`
	args := []any{}
	if f.UserID > 0 {
		query += ` WHERE user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing energy transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.EnergyTransaction
	for rows.Next() {
		var (
			t       model.EnergyTransaction
			kind    string
			adminID sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &kind, &t.Description, &adminID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.TransactionType = model.TransactionType(kind)
		if adminID.Valid {
			id := adminID.Int64
			t.AdminID = &id
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}
