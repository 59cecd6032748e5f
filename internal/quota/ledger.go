// Package quota tracks per-user daily edit allowances and premium status.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leca/photo-editor/internal/database"
	"github.com/leca/photo-editor/internal/model"
	"github.com/moby/locker"
)

const (
	DefaultFreeDailyLimit    = 10
	DefaultPremiumDailyLimit = 999
)

var (
	// ErrQuotaExceeded is returned when a non-premium user has no edits left today.
	ErrQuotaExceeded = errors.New("daily edit limit reached")
	// ErrInvalidDays is returned by GrantPremium for a non-positive duration.
	ErrInvalidDays = errors.New("premium days must be positive")
)

// GrantPolicy decides how a new grant combines with an active one.
type GrantPolicy int

const (
	// GrantOverwrite sets the expiry to today + days.
	GrantOverwrite GrantPolicy = iota
	// GrantExtend adds days to the later of today and the current expiry.
	GrantExtend
)

func (p GrantPolicy) String() string {
	if p == GrantExtend {
		return "extend"
	}
	return "overwrite"
}

// ParseGrantPolicy maps a config value to a GrantPolicy. Empty means overwrite.
func ParseGrantPolicy(s string) (GrantPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return GrantOverwrite, nil
	case "extend":
		return GrantExtend, nil
	default:
		return GrantOverwrite, fmt.Errorf("unknown grant policy %q", s)
	}
}

// Store is the persistence the ledger needs. database.SQLiteDB satisfies it.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	SetPremium(ctx context.Context, userID int64, expiry model.Date) error
	ConsumeEdit(ctx context.Context, p database.ConsumeParams) error
	ListEdits(ctx context.Context, userID int64, limit int) ([]*model.EditEvent, error)
	Stats(ctx context.Context, today model.Date) (*model.Stats, error)
}

// Config holds ledger settings. Zero values fall back to the defaults.
type Config struct {
	FreeDailyLimit    int
	PremiumDailyLimit int
	GrantPolicy       GrantPolicy
	// Location fixes the calendar used for day boundaries. Defaults to UTC.
	Location *time.Location
	// Clock returns the current instant. Defaults to time.Now.
	Clock func() time.Time
}

// Status is a read-only snapshot of a user's allowance.
type Status struct {
	User      *model.User `json:"user"`
	Today     model.Date  `json:"today"`
	Premium   bool        `json:"premium"`
	UsedToday int         `json:"used_today"`
	Remaining int         `json:"remaining"`
}

// Ledger enforces the daily limits. Mutating operations on one user are
// serialized in-process; the store's conditional update covers other writers.
type Ledger struct {
	store Store
	cfg   Config
	locks *locker.Locker
}

// New creates a Ledger over store.
func New(store Store, cfg Config) *Ledger {
	if cfg.FreeDailyLimit <= 0 {
		cfg.FreeDailyLimit = DefaultFreeDailyLimit
	}
	if cfg.PremiumDailyLimit <= 0 {
		cfg.PremiumDailyLimit = DefaultPremiumDailyLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Ledger{store: store, cfg: cfg, locks: locker.New()}
}

// lock serializes ledger mutations of one user and returns the unlock func.
func (l *Ledger) lock(userID int64) func() {
	key := strconv.FormatInt(userID, 10)
	l.locks.Lock(key)
	return func() { _ = l.locks.Unlock(key) }
}

// Today returns the current calendar day in the ledger's location.
func (l *Ledger) Today() model.Date {
	return model.DateOf(l.cfg.Clock().In(l.cfg.Location))
}

// GetOrCreate returns the record for userID, creating a default one first if
// none exists. Profile fields are only used on creation.
func (l *Ledger) GetOrCreate(ctx context.Context, userID int64, profile model.Profile) (*model.User, error) {
	u, err := l.store.GetUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	now := l.cfg.Clock()
	err = l.store.CreateUser(ctx, &model.User{
		UserID:    userID,
		Username:  profile.Username,
		FullName:  profile.FullName,
		LastReset: model.DateOf(now.In(l.cfg.Location)),
		JoinedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("quota record created", "user_id", userID)
	return l.store.GetUser(ctx, userID)
}

// CanConsume reports whether userID may perform one more edit today.
func (l *Ledger) CanConsume(ctx context.Context, userID int64) (bool, error) {
	u, err := l.GetOrCreate(ctx, userID, model.Profile{})
	if err != nil {
		return false, err
	}
	return l.allowed(u, l.Today()), nil
}

func (l *Ledger) allowed(u *model.User, today model.Date) bool {
	return u.PremiumActive(today) || u.DailyCountOn(today) < l.cfg.FreeDailyLimit
}

// Consume records one edit without checking the limit.
func (l *Ledger) Consume(ctx context.Context, userID int64, category, tag string) error {
	unlock := l.lock(userID)
	defer unlock()

	if _, err := l.GetOrCreate(ctx, userID, model.Profile{}); err != nil {
		return err
	}
	return l.record(ctx, userID, category, tag, 0)
}

// TryConsume records one edit only if the user still has an allowance today.
func (l *Ledger) TryConsume(ctx context.Context, userID int64, category, tag string) error {
	unlock := l.lock(userID)
	defer unlock()

	if _, err := l.GetOrCreate(ctx, userID, model.Profile{}); err != nil {
		return err
	}
	return l.record(ctx, userID, category, tag, l.cfg.FreeDailyLimit)
}

// Spend checks the allowance, runs work and records the edit only when work
// succeeds. The user stays locked for the whole sequence.
func (l *Ledger) Spend(ctx context.Context, userID int64, category, tag string, work func(context.Context) error) error {
	unlock := l.lock(userID)
	defer unlock()

	u, err := l.GetOrCreate(ctx, userID, model.Profile{})
	if err != nil {
		return err
	}
	if !l.allowed(u, l.Today()) {
		return ErrQuotaExceeded
	}
	if err := work(ctx); err != nil {
		return err
	}
	return l.record(ctx, userID, category, tag, l.cfg.FreeDailyLimit)
}

func (l *Ledger) record(ctx context.Context, userID int64, category, tag string, limit int) error {
	now := l.cfg.Clock()
	err := l.store.ConsumeEdit(ctx, database.ConsumeParams{
		Event: &model.EditEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			Category:  category,
			Tag:       tag,
			Day:       model.DateOf(now.In(l.cfg.Location)),
			CreatedAt: now,
		},
		Limit: limit,
	})
	if errors.Is(err, database.ErrLimitReached) {
		return ErrQuotaExceeded
	}
	return err
}

// Remaining returns the edits left today. Premium users report the premium
// allowance.
func (l *Ledger) Remaining(ctx context.Context, userID int64) (int, error) {
	st, err := l.Status(ctx, userID)
	if err != nil {
		return 0, err
	}
	return st.Remaining, nil
}

// Status returns the record together with the derived allowance for today.
func (l *Ledger) Status(ctx context.Context, userID int64) (*Status, error) {
	u, err := l.GetOrCreate(ctx, userID, model.Profile{})
	if err != nil {
		return nil, err
	}
	today := l.Today()
	st := &Status{
		User:      u,
		Today:     today,
		Premium:   u.PremiumActive(today),
		UsedToday: u.DailyCountOn(today),
	}
	if st.Premium {
		st.Remaining = l.cfg.PremiumDailyLimit
	} else {
		st.Remaining = max(0, l.cfg.FreeDailyLimit-st.UsedToday)
	}
	return st, nil
}

// GrantPremium marks userID premium for days days and returns the new expiry.
func (l *Ledger) GrantPremium(ctx context.Context, userID int64, days int) (model.Date, error) {
	if days <= 0 {
		return "", ErrInvalidDays
	}
	unlock := l.lock(userID)
	defer unlock()

	u, err := l.GetOrCreate(ctx, userID, model.Profile{})
	if err != nil {
		return "", err
	}

	base := l.Today()
	if l.cfg.GrantPolicy == GrantExtend && u.PremiumActive(base) && u.PremiumExpiry.After(base) {
		base = *u.PremiumExpiry
	}
	expiry := base.AddDays(days)
	if err := l.store.SetPremium(ctx, userID, expiry); err != nil {
		return "", err
	}
	slog.Info("premium granted", "user_id", userID, "days", days, "expiry", expiry, "policy", l.cfg.GrantPolicy)
	return expiry, nil
}

// History returns the most recent usage events of userID, newest first.
func (l *Ledger) History(ctx context.Context, userID int64, limit int) ([]*model.EditEvent, error) {
	return l.store.ListEdits(ctx, userID, limit)
}

// Users returns the ids of every known user in ascending order.
func (l *Ledger) Users(ctx context.Context) ([]int64, error) {
	return l.store.ListUserIDs(ctx)
}

// Stats returns the reporting aggregates for today.
func (l *Ledger) Stats(ctx context.Context) (*model.Stats, error) {
	return l.store.Stats(ctx, l.Today())
}
