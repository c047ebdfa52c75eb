package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecraft/sitecraft-identity/internal/model"
)

func TestWithTxCommits(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET last_login").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Users.TouchLastLogin(ctx, 1, time.Now())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = store.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginError(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := store.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestSessionCreate(t *testing.T) {
	db, mock := newMock(t)
	expires := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (user_id, token_hash, ip_address, user_agent, expires_at)`)).
		WithArgs(int64(3), "abc", "10.0.0.1", "curl/8", expires).
		WillReturnResult(sqlmock.NewResult(11, 1))

	s := &model.Session{UserID: 3, TokenHash: "abc", IPAddress: "10.0.0.1", UserAgent: "curl/8", ExpiresAt: expires}
	require.NoError(t, NewSessionRepository(db).Create(context.Background(), s))
	assert.Equal(t, int64(11), s.ID)
}

func TestSessionCreateClampsClientFields(t *testing.T) {
	db, mock := newMock(t)
	expires := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(int64(3), "abc", strings.Repeat("1", 64), strings.Repeat("A", 512), expires).
		WillReturnResult(sqlmock.NewResult(12, 1))

	s := &model.Session{
		UserID:    3,
		TokenHash: "abc",
		IPAddress: strings.Repeat("1", 100),
		UserAgent: strings.Repeat("A", 600),
		ExpiresAt: expires,
	}
	require.NoError(t, NewSessionRepository(db).Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "abc", clamp("abc", 5))
	assert.Equal(t, "ab", clamp("abc", 2))
	assert.Equal(t, "Кот", clamp("Котик", 3))
	assert.Equal(t, "", clamp("", 3))
}

func TestSessionTouchActivity(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET last_activity = ? WHERE token_hash = ?`)).
		WithArgs(at, "abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewSessionRepository(db).TouchActivity(context.Background(), "abc", at))
}

func TestHashToken(t *testing.T) {
	h := HashToken("token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("token"))
	assert.NotEqual(t, h, HashToken("token2"))
}

func TestLedgerAppend(t *testing.T) {
	db, mock := newMock(t)
	adminID := int64(1)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO energy_transactions (user_id, amount, transaction_type, description, admin_id)`)).
		WithArgs(int64(3), int64(100), "admin_award", "bonus", int64(1)).
		WillReturnResult(sqlmock.NewResult(5, 1))

	entry := &model.EnergyTransaction{UserID: 3, Amount: 100, TransactionType: model.TransactionAdminAward, Description: "bonus", AdminID: &adminID}
	require.NoError(t, NewLedgerRepository(db).Append(context.Background(), entry))
	assert.Equal(t, int64(5), entry.ID)
}

func TestLedgerList(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM energy_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)).
		WithArgs(int64(3), 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "transaction_type", "description", "admin_id", "created_at"}).
			AddRow(int64(2), int64(3), int64(50), "admin_award", "again", nil, created).
			AddRow(int64(1), int64(3), int64(100), "admin_award", "bonus", int64(1), created))

	txs, err := NewLedgerRepository(db).List(context.Background(), model.LogFilter{UserID: 3, Limit: 10})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Nil(t, txs[0].AdminID)
	require.NotNil(t, txs[1].AdminID)
	assert.Equal(t, int64(1), *txs[1].AdminID)
	assert.Equal(t, model.TransactionAdminAward, txs[1].TransactionType)
}

func TestUserLogAppend(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_logs (user_id, action_type, action_description, project_id, energy_change, ip_address)`)).
		WithArgs(int64(3), "energy_received", "got energy", nil, int64(100), "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(9, 1))

	entry := &model.UserLog{UserID: 3, ActionType: model.ActionEnergyReceived, ActionDescription: "got energy", EnergyChange: 100, IPAddress: "10.0.0.1"}
	require.NoError(t, NewUserLogRepository(db).Append(context.Background(), entry))
	assert.Equal(t, int64(9), entry.ID)
}

func TestUserLogAppendClampsLongFields(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("INSERT INTO user_logs").
		WithArgs(int64(1), "user_banned", strings.Repeat("d", 1000), nil, int64(0), strings.Repeat("9", 64)).
		WillReturnResult(sqlmock.NewResult(10, 1))

	entry := &model.UserLog{
		UserID:            1,
		ActionType:        model.ActionUserBanned,
		ActionDescription: strings.Repeat("d", 1200),
		IPAddress:         strings.Repeat("9", 80),
	}
	require.NoError(t, NewUserLogRepository(db).Append(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserLogList(t *testing.T) {
	columns := []string{"id", "user_id", "action_type", "action_description", "project_id", "energy_change", "ip_address", "created_at", "nickname", "email"}
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("all users", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`JOIN users u ON ul.user_id = u.id ORDER BY ul.created_at DESC, ul.id DESC LIMIT ?`)).
			WithArgs(50).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(1), int64(3), "login", "logged in", nil, int64(0), "1.2.3.4", created, "alice", "alice@x.com"))

		logs, err := NewUserLogRepository(db).List(context.Background(), model.LogFilter{Limit: 50})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, model.ActionLogin, logs[0].ActionType)
		assert.Equal(t, "alice", logs[0].Nickname)
		assert.Nil(t, logs[0].ProjectID)
	})

	t.Run("one user", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE ul.user_id = ?`)).
			WithArgs(int64(3), 5).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(2), int64(3), "energy_received", "bonus", "proj-1", int64(100), "1.2.3.4", created, "alice", "alice@x.com"))

		logs, err := NewUserLogRepository(db).List(context.Background(), model.LogFilter{UserID: 3, Limit: 5})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, int64(100), logs[0].EnergyChange)
		require.NotNil(t, logs[0].ProjectID)
		assert.Equal(t, "proj-1", *logs[0].ProjectID)
	})
}

func TestStatsGet(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users WHERE is_admin = FALSE`)).
		WillReturnRows(sqlmock.NewRows([]string{"users", "projects", "published", "energy"}).
			AddRow(int64(4), int64(10), int64(3), "2500"))

	s, err := NewStatsRepository(db).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Stats{TotalUsers: 4, TotalProjects: 10, TotalPublished: 3, TotalEnergyDistributed: 2500}, s)
}

func TestMigrateRunsEmbeddedMigrations(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), &sql.DB{}))
	assert.Equal(t, ".", gotDir)
}

func TestMigrateWrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("bad migration")
	}

	err := Migrate(context.Background(), &sql.DB{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running migrations: bad migration")
}

func TestApplyDSNDefaults(t *testing.T) {
	cfg, err := mysql.ParseDSN("user:pass@tcp(db:3306)/sitecraft?readTimeout=30s")
	require.NoError(t, err)

	applyDSNDefaults(cfg, 5*time.Second)

	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}

func TestApplyDSNDefaultsDisablesClientFoundRows(t *testing.T) {
	cfg, err := mysql.ParseDSN("user:pass@tcp(db:3306)/sitecraft?clientFoundRows=true")
	require.NoError(t, err)
	require.True(t, cfg.ClientFoundRows)

	applyDSNDefaults(cfg, 5*time.Second)

	assert.False(t, cfg.ClientFoundRows)
	assert.NotContains(t, cfg.FormatDSN(), "clientFoundRows")
}
