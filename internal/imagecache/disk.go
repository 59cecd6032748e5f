package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Disk keeps photos on the local filesystem at <basePath>/<userID>/photo so
// they survive restarts.
type Disk struct {
	basePath string
	ttl      time.Duration
	now      func() time.Time
}

var _ Cache = (*Disk)(nil)

// NewDisk creates a Disk cache rooted at basePath. A zero ttl keeps photos
// until they are replaced or deleted.
func NewDisk(basePath string, ttl time.Duration) *Disk {
	return &Disk{basePath: basePath, ttl: ttl, now: time.Now}
}

func (d *Disk) userDir(userID int64) string {
	return filepath.Join(d.basePath, strconv.FormatInt(userID, 10))
}

func (d *Disk) photoPath(userID int64) string {
	return filepath.Join(d.userDir(userID), "photo")
}

// Put writes data using a temp file and rename so readers never observe a
// partial photo.
func (d *Disk) Put(_ context.Context, userID int64, data []byte) error {
	dir := d.userDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	dst := d.photoPath(userID)
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}
	tmpPath = ""
	return nil
}

func (d *Disk) Get(_ context.Context, userID int64) ([]byte, error) {
	path := d.photoPath(userID)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("checking file %s: %w", path, err)
	}
	if d.expired(info) {
		os.RemoveAll(d.userDir(userID))
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the user's directory. Deleting a missing photo is not an
// error.
func (d *Disk) Delete(_ context.Context, userID int64) error {
	dir := d.userDir(userID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing directory %s: %w", dir, err)
	}
	return nil
}

// Purge removes every photo older than the TTL and returns how many went.
func (d *Disk) Purge() int {
	if d.ttl <= 0 {
		return 0
	}
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(d.basePath, e.Name())
		info, err := os.Stat(filepath.Join(dir, "photo"))
		if err != nil || !d.expired(info) {
			continue
		}
		if os.RemoveAll(dir) == nil {
			removed++
		}
	}
	return removed
}

func (d *Disk) expired(info fs.FileInfo) bool {
	return d.ttl > 0 && d.now().Sub(info.ModTime()) >= d.ttl
}
