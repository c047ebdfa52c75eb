package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/sitecraft/sitecraft-identity/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("email or nickname already exists")
	ErrProtectedUser = errors.New("user is protected from deletion")
	ErrEnergyRange   = errors.New("energy balance out of range")
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlOutOfRange     = 1690 // ER_DATA_OUT_OF_RANGE
)

const userColumns = `id, email, nickname, password_hash, is_admin, energy,
	total_projects, total_publishes, created_at, last_login`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
// A collision on either unique key returns ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, nickname, password_hash, is_admin, energy) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.Nickname, user.PasswordHash, user.IsAdmin, user.Energy)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// InsertIfAbsent inserts user unless a row with the same unique key already
// exists, in which case nothing changes. It reports whether a row was inserted.
func (r *UserRepository) InsertIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	query := `INSERT INTO users (email, nickname, password_hash, is_admin, energy) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.Nickname, user.PasswordHash, user.IsAdmin, user.Energy)
	if err != nil {
		return false, fmt.Errorf("inserting user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindByIdentifier retrieves the user whose email or nickname equals ident.
// An email match wins over a nickname match.
func (r *UserRepository) FindByIdentifier(ctx context.Context, ident string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? OR nickname = ?
		ORDER BY email = ? DESC LIMIT 1`
	return r.getOne(ctx, query, ident, ident, ident)
}

// IsAdmin reports the current admin flag of a user.
func (r *UserRepository) IsAdmin(ctx context.Context, id int64) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id = ?`, id).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("querying admin flag: %w", err)
	}
	return isAdmin, nil
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// AddEnergy atomically adds amount to the user's balance and returns the
// new balance. Call it inside a transaction so the read sees this write.
func (r *UserRepository) AddEnergy(ctx context.Context, id, amount int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET energy = energy + ? WHERE id = ?`, amount, id)
	if err != nil {
		if isMySQLError(err, mysqlOutOfRange) {
			return 0, ErrEnergyRange
		}
		return 0, fmt.Errorf("updating energy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrUserNotFound
	}

	var balance int64
	if err := r.db.QueryRowContext(ctx, `SELECT energy FROM users WHERE id = ?`, id).Scan(&balance); err != nil {
		return 0, fmt.Errorf("reading energy: %w", err)
	}
	return balance, nil
}

// DeleteByIdentifier removes every user whose email or nickname equals ident
// and returns the removed rows' IDs. Owned rows cascade in the schema. If
// protectedID is among the matches nothing is deleted and ErrProtectedUser
// is returned.
func (r *UserRepository) DeleteByIdentifier(ctx context.Context, ident string, protectedID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE email = ? OR nickname = ? FOR UPDATE`, ident, ident)
	if err != nil {
		return nil, fmt.Errorf("locking users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if slices.Contains(ids, protectedID) {
		return nil, ErrProtectedUser
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ? OR nickname = ?`, ident, ident); err != nil {
		return nil, fmt.Errorf("deleting users: %w", err)
	}
	return ids, nil
}

// List retrieves every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := s.Scan(
		&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.IsAdmin, &u.Energy,
		&u.TotalProjects, &u.TotalPublishes, &u.CreatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	return isMySQLError(err, mysqlDuplicateEntry)
}

func isMySQLError(err error, number uint16) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == number
}
