// Package imagecache keeps the last uploaded photo of each user.
package imagecache

import (
	"context"
	"errors"
	"strconv"
)

var (
	// ErrNotFound is returned by Get when no photo is cached for the user.
	ErrNotFound = errors.New("photo not cached")
	// ErrTooLarge is returned by Put when a photo can never fit the cache.
	ErrTooLarge = errors.New("photo exceeds cache capacity")
)

// Cache stores one photo per user. Put replaces any earlier photo.
type Cache interface {
	Put(ctx context.Context, userID int64, data []byte) error
	Get(ctx context.Context, userID int64) ([]byte, error)
	Delete(ctx context.Context, userID int64) error
}

func userKey(prefix string, userID int64) string {
	return prefix + strconv.FormatInt(userID, 10)
}
