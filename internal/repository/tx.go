package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users    *UserRepository
	Sessions *SessionRepository
	Ledger   *LedgerRepository
	Logs     *UserLogRepository
	Stats    *StatsRepository
}

// NewRepositories binds every repository to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Sessions: NewSessionRepository(db),
		Ledger:   NewLedgerRepository(db),
		Logs:     NewUserLogRepository(db),
		Stats:    NewStatsRepository(db),
	}
}

// Store owns the connection pool and hands out repositories, either bound
// to the pool or to a transaction.
type Store struct {
	Repositories
	db *sql.DB
}

// NewStore creates a Store on top of db.
func NewStore(db *sql.DB) *Store {
	return &Store{Repositories: NewRepositories(db), db: db}
}

// WithTx runs fn with repositories bound to a new transaction. The
// transaction commits when fn returns nil and rolls back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, NewRepositories(tx))
}
