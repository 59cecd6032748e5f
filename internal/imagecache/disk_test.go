package imagecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	d := NewDisk(t.TempDir(), 0)

	_, err := d.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte("hello, photo data")
	require.NoError(t, d.Put(ctx, 5, data))

	content, err := os.ReadFile(filepath.Join(d.basePath, "5", "photo"))
	require.NoError(t, err)
	assert.Equal(t, data, content)

	got, err := d.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, d.Put(ctx, 5, []byte("second")))
	got, err = d.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	require.NoError(t, d.Delete(ctx, 5))
	_, err = os.Stat(filepath.Join(d.basePath, "5"))
	assert.True(t, os.IsNotExist(err), "expected directory to be removed")

	// idempotent
	require.NoError(t, d.Delete(ctx, 5))
}

func TestDisk_PutLeavesNoTempFiles(t *testing.T) {
	d := NewDisk(t.TempDir(), 0)
	require.NoError(t, d.Put(context.Background(), 9, []byte("x")))

	entries, err := os.ReadDir(filepath.Join(d.basePath, "9"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "photo", entries[0].Name())
}

func TestDisk_TTLAndPurge(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Now()}
	d := NewDisk(t.TempDir(), time.Hour)
	d.now = clock.Now

	require.NoError(t, d.Put(ctx, 1, []byte("a")))
	require.NoError(t, d.Put(ctx, 2, []byte("b")))
	assert.Equal(t, 0, d.Purge())

	clock.Advance(2 * time.Hour)
	_, err := d.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, d.Purge())
	_, err = os.Stat(filepath.Join(d.basePath, "2"))
	assert.True(t, os.IsNotExist(err))
}
