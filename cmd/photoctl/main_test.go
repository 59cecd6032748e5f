package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leca/photo-editor/internal/imageproc"
	"github.com/leca/photo-editor/internal/model"
	"github.com/leca/photo-editor/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "photo.db")
}

func TestActions_FamilyJSON(t *testing.T) {
	out, err := runCLI(t, "actions", "--family", "crop", "--json")
	require.NoError(t, err)

	var actions []imageproc.Action
	require.NoError(t, json.Unmarshal([]byte(out), &actions))
	assert.Len(t, actions, 5)
	for _, a := range actions {
		assert.Equal(t, imageproc.FamilyCrop, a.Family)
	}
}

func TestActions_Table(t *testing.T) {
	out, err := runCLI(t, "actions")
	require.NoError(t, err)
	assert.Contains(t, out, "crop_square")
	assert.Contains(t, out, "Golden Hour")

	_, err = runCLI(t, "actions", "--family", "sparkle")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.jpg")

	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.NRGBA{R: 10, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	stdout, err := runCLI(t, "apply", "crop_square", in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "crop_square")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", imageproc.DetectFormat(data))

	_, err = runCLI(t, "apply", "--strict", "sparkle", in, out)
	assert.ErrorIs(t, err, imageproc.ErrUnknownAction)
}

func TestGrantQuotaStats(t *testing.T) {
	db := tempDB(t)

	out, err := runCLI(t, "--db", db, "grant", "42", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "user 42 is premium until")

	out, err = runCLI(t, "--db", db, "quota", "42", "--json")
	require.NoError(t, err)
	var st quota.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Premium)
	assert.Equal(t, int64(42), st.User.UserID)
	require.NotNil(t, st.User.PremiumExpiry)
	assert.Equal(t, st.Today.AddDays(7), *st.User.PremiumExpiry)

	out, err = runCLI(t, "--db", db, "stats", "--json")
	require.NoError(t, err)
	var stats model.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.PremiumUsers)

	out, err = runCLI(t, "--db", db, "history", "42")
	require.NoError(t, err)
	assert.Equal(t, "No edits recorded.", strings.TrimSpace(out))
}

func TestUsers(t *testing.T) {
	db := tempDB(t)

	out, err := runCLI(t, "--db", db, "users")
	require.NoError(t, err)
	assert.Equal(t, "No users recorded.", strings.TrimSpace(out))

	_, err = runCLI(t, "--db", db, "grant", "9", "--days", "3")
	require.NoError(t, err)
	_, err = runCLI(t, "--db", db, "grant", "4", "--days", "3")
	require.NoError(t, err)

	out, err = runCLI(t, "--db", db, "users", "--json")
	require.NoError(t, err)
	var statuses []quota.Status
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, int64(4), statuses[0].User.UserID)
	assert.Equal(t, int64(9), statuses[1].User.UserID)
	assert.Equal(t, quota.DefaultPremiumDailyLimit, statuses[0].Remaining)

	out, err = runCLI(t, "--db", db, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "Total edits")
	assert.Contains(t, out, "999")
}

func TestInvalidArguments(t *testing.T) {
	db := tempDB(t)

	_, err := runCLI(t, "--db", db, "quota", "abc")
	assert.ErrorContains(t, err, "invalid user id")

	_, err = runCLI(t, "--db", db, "grant", "7", "--days", "-3")
	assert.ErrorIs(t, err, quota.ErrInvalidDays)
}
