package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leca/photo-editor/internal/model"
	_ "modernc.org/sqlite"
)

const dsnPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// Compile-time check that SQLiteDB implements Database.
var _ Database = (*SQLiteDB)(nil)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass ":memory:".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?" + dsnPragmas
	} else if !strings.Contains(dsn, "_pragma") {
		dsn += "&" + dsnPragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps in-memory databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser inserts u unless a record for u.UserID already exists.
func (s *SQLiteDB) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (user_id, username, full_name, is_premium, premium_expiry, daily_count, last_reset, total_edits, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.Username, u.FullName, boolToInt(u.IsPremium), dateOrNull(u.PremiumExpiry),
		u.DailyCount, u.LastReset.String(), u.TotalEdits, u.JoinedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, full_name, is_premium, premium_expiry, daily_count, last_reset, total_edits, joined_at
		FROM users WHERE user_id = ?`,
		userID,
	)
	return scanUser(row)
}

func (s *SQLiteDB) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetPremium raises the premium flag and replaces the expiry day.
func (s *SQLiteDB) SetPremium(ctx context.Context, userID int64, expiry model.Date) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_premium = 1, premium_expiry = ?
		WHERE user_id = ?`,
		expiry.String(), userID,
	)
	if err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	return checkRowsAffected(res, "user")
}

// ---------------------------------------------------------------------------
// Usage
// ---------------------------------------------------------------------------

// ConsumeEdit applies the lazy day reset, increments the daily and lifetime
// counters and appends the event, all in one transaction. With a positive
// Limit the increment is conditional and ErrLimitReached reports a full day.
func (s *SQLiteDB) ConsumeEdit(ctx context.Context, p ConsumeParams) error {
	ev := p.Event
	if ev == nil {
		return errors.New("consume edit: event is required")
	}
	day := ev.Day.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Warn("ConsumeEdit: rollback failed", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET daily_count = 0, last_reset = ?
		WHERE user_id = ? AND last_reset <> ?`,
		day, ev.UserID, day,
	)
	if err != nil {
		return fmt.Errorf("reset daily count: %w", err)
	}

	var res sql.Result
	if p.Limit > 0 {
		res, err = tx.ExecContext(ctx, `
			UPDATE users SET daily_count = daily_count + 1, total_edits = total_edits + 1
			WHERE user_id = ?
			  AND (daily_count < ? OR (is_premium = 1 AND premium_expiry IS NOT NULL AND premium_expiry >= ?))`,
			ev.UserID, p.Limit, day,
		)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE users SET daily_count = daily_count + 1, total_edits = total_edits + 1
			WHERE user_id = ?`,
			ev.UserID,
		)
	}
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE user_id = ?`, ev.UserID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("user %d: %w", ev.UserID, ErrNotFound)
		}
		return fmt.Errorf("user %d: %w", ev.UserID, ErrLimitReached)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO edits (id, user_id, category, tag, day, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.Category, ev.Tag, day, ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert edit: %w", err)
	}

	return tx.Commit()
}

// ListEdits returns the most recent events of a user, newest first.
func (s *SQLiteDB) ListEdits(ctx context.Context, userID int64, limit int) ([]*model.EditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, tag, day, created_at
		FROM edits WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()

	var events []*model.EditEvent
	for rows.Next() {
		ev := &model.EditEvent{}
		var day, createdStr string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Category, &ev.Tag, &day, &createdStr); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		ev.Day = model.Date(day)
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ---------------------------------------------------------------------------
// Reporting
// ---------------------------------------------------------------------------

// Stats counts users, raw premium flags, lifetime edits and the events
// recorded on today.
func (s *SQLiteDB) Stats(ctx context.Context, today model.Date) (*model.Stats, error) {
	st := &model.Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_premium), 0), COALESCE(SUM(total_edits), 0)
		FROM users`,
	).Scan(&st.TotalUsers, &st.PremiumUsers, &st.TotalEdits)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edits WHERE day = ?`, today.String()).Scan(&st.TodayEdits)
	if err != nil {
		return nil, fmt.Errorf("today stats: %w", err)
	}
	return st, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scannable) (*model.User, error) {
	u := &model.User{}
	var isPremium int
	var expiry sql.NullString
	var lastReset, joinedStr string

	err := row.Scan(&u.UserID, &u.Username, &u.FullName, &isPremium, &expiry,
		&u.DailyCount, &lastReset, &u.TotalEdits, &joinedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.IsPremium = isPremium != 0
	if expiry.Valid && expiry.String != "" {
		d := model.Date(expiry.String)
		u.PremiumExpiry = &d
	}
	u.LastReset = model.Date(lastReset)
	u.JoinedAt, _ = time.Parse(time.RFC3339, joinedStr)
	return u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateOrNull(d *model.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func checkRowsAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
