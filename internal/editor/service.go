// Package editor ties the photo cache, the quota ledger, the transform engine
// and the AI describer into the user-facing edit flow.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"time"

	"github.com/leca/photo-editor/internal/aitext"
	"github.com/leca/photo-editor/internal/imagecache"
	"github.com/leca/photo-editor/internal/imageproc"
	"github.com/leca/photo-editor/internal/model"
	"github.com/leca/photo-editor/internal/quota"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxUploadBytes int64 = 20 << 20
	// DefaultMaxPixels matches the decompression bomb threshold of common
	// imaging libraries.
	DefaultMaxPixels int64 = 89_478_485
)

var (
	// ErrNoPhoto is returned when the user has not uploaded a photo yet.
	ErrNoPhoto = errors.New("no photo uploaded")
	// ErrUnsupportedFormat is returned for uploads that are not a known image type.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooLarge is returned for uploads above the configured size.
	ErrTooLarge = errors.New("photo too large")
	// ErrTooManyPixels is returned for uploads whose declared dimensions
	// exceed the configured pixel budget.
	ErrTooManyPixels = errors.New("photo has too many pixels")
	// ErrAIUnavailable is returned when no describer is configured.
	ErrAIUnavailable = errors.New("ai features unavailable")
)

// Config tunes a Service.
type Config struct {
	// Workers caps concurrent transforms. Defaults to GOMAXPROCS.
	Workers        int
	MaxUploadBytes int64
	// MaxPixels caps width*height of uploads. Defaults to DefaultMaxPixels.
	MaxPixels int64
	// Describer is optional; without it Describe returns ErrAIUnavailable.
	Describer aitext.Describer
}

// Service runs edits for users.
type Service struct {
	cache     imagecache.Cache
	ledger    *quota.Ledger
	proc      *imageproc.Processor
	describer aitext.Describer
	sem       *semaphore.Weighted
	maxUpload int64
	maxPixels int64
}

// New creates a Service.
func New(cache imagecache.Cache, ledger *quota.Ledger, proc *imageproc.Processor, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	return &Service{
		cache:     cache,
		ledger:    ledger,
		proc:      proc,
		describer: cfg.Describer,
		sem:       semaphore.NewWeighted(int64(cfg.Workers)),
		maxUpload: cfg.MaxUploadBytes,
		maxPixels: cfg.MaxPixels,
	}
}

// Result is the outcome of a successful edit.
type Result struct {
	Image     []byte
	Action    string
	Remaining int
}

// Register creates the user's quota record if needed.
func (s *Service) Register(ctx context.Context, userID int64, profile model.Profile) (*model.User, error) {
	return s.ledger.GetOrCreate(ctx, userID, profile)
}

// Upload stores data as the user's current photo.
func (s *Service) Upload(ctx context.Context, userID int64, data []byte) error {
	if int64(len(data)) > s.maxUpload {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	format := imageproc.DetectFormat(data)
	if format == "" {
		return ErrUnsupportedFormat
	}
	// Only the header is read, so a small file declaring huge dimensions is
	// rejected before anything is allocated for its pixels.
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", imageproc.ErrDecode, err)
	}
	if pixels := int64(hdr.Width) * int64(hdr.Height); pixels > s.maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooManyPixels, hdr.Width, hdr.Height, s.maxPixels)
	}
	if _, err := s.ledger.GetOrCreate(ctx, userID, model.Profile{}); err != nil {
		return err
	}
	if err := s.cache.Put(ctx, userID, data); err != nil {
		return err
	}
	slog.Info("photo uploaded", "user_id", userID, "format", format,
		"width", hdr.Width, "height", hdr.Height, "size_bytes", len(data))
	return nil
}

// Edit applies action to the user's current photo. The allowance is only
// spent when the transform succeeds. The cached photo stays unchanged unless
// it turns out to be undecodable, in which case it is dropped.
func (s *Service) Edit(ctx context.Context, userID int64, action string) (*Result, error) {
	photo, err := s.photo(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []byte
	start := time.Now()
	err = s.ledger.Spend(ctx, userID, model.CategoryFilter, action, func(ctx context.Context) error {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer s.sem.Release(1)

		var err error
		out, err = s.proc.Apply(photo, action)
		return err
	})
	if errors.Is(err, imageproc.ErrDecode) {
		// The cached photo can never be edited; make the user upload again.
		if derr := s.cache.Delete(ctx, userID); derr != nil {
			slog.Warn("failed to drop undecodable photo", "user_id", userID, "error", derr)
		}
	}
	if err != nil {
		return nil, err
	}

	remaining, err := s.ledger.Remaining(ctx, userID)
	if err != nil {
		return nil, err
	}
	slog.Info("edit applied",
		"user_id", userID,
		"action", action,
		"output_size_bytes", len(out),
		"remaining", remaining,
		"elapsed", time.Since(start))
	return &Result{Image: out, Action: action, Remaining: remaining}, nil
}

// Describe asks the AI describer about the user's current photo and records
// the usage. AI requests are counted but never blocked by the daily limit.
func (s *Service) Describe(ctx context.Context, userID int64, kind aitext.Kind) (string, error) {
	if s.describer == nil {
		return "", ErrAIUnavailable
	}
	photo, err := s.photo(ctx, userID)
	if err != nil {
		return "", err
	}

	text, err := s.describer.Describe(ctx, kind, photo)
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", kind, err)
	}
	if err := s.ledger.Consume(ctx, userID, "ai_"+string(kind), ""); err != nil {
		return "", err
	}
	return text, nil
}

// AIEnabled reports whether Describe can succeed.
func (s *Service) AIEnabled() bool { return s.describer != nil }

// Catalog returns every action the engine knows.
func (s *Service) Catalog() []imageproc.Action { return imageproc.Catalog() }

// Status returns the user's allowance snapshot.
func (s *Service) Status(ctx context.Context, userID int64) (*quota.Status, error) {
	return s.ledger.Status(ctx, userID)
}

// GrantPremium grants premium to userID for days days.
func (s *Service) GrantPremium(ctx context.Context, userID int64, days int) (model.Date, error) {
	return s.ledger.GrantPremium(ctx, userID, days)
}

// History returns the user's most recent usage events.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*model.EditEvent, error) {
	return s.ledger.History(ctx, userID, limit)
}

// Stats returns the reporting aggregates.
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	return s.ledger.Stats(ctx)
}

func (s *Service) photo(ctx context.Context, userID int64) ([]byte, error) {
	data, err := s.cache.Get(ctx, userID)
	if errors.Is(err, imagecache.ErrNotFound) {
		return nil, ErrNoPhoto
	}
	return data, err
}
