package database

import (
	"context"
	"errors"

	"github.com/leca/photo-editor/internal/model"
)

var (
	// ErrNotFound is returned when the addressed user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLimitReached is returned by a conditional ConsumeEdit that found no
	// free slot.
	ErrLimitReached = errors.New("daily limit reached")
)

// ConsumeParams describes one usage increment.
type ConsumeParams struct {
	// Event is appended to the usage log. Its UserID and Day select the
	// record and the calendar day used for the lazy reset.
	Event *model.EditEvent
	// Limit, when positive, makes the increment conditional: it only lands
	// while the daily count for Event.Day is below Limit or premium is active
	// on Event.Day.
	Limit int
}

// Database defines the persistence interface for quota records and usage events.
type Database interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	SetPremium(ctx context.Context, userID int64, expiry model.Date) error

	// Usage
	ConsumeEdit(ctx context.Context, p ConsumeParams) error
	ListEdits(ctx context.Context, userID int64, limit int) ([]*model.EditEvent, error)

	// Reporting
	Stats(ctx context.Context, today model.Date) (*model.Stats, error)

	Close() error
}
