package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMigrate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate_UpStatusDown(t *testing.T) {
	dbURL := "file:" + filepath.Join(t.TempDir(), "teamtasks.db")
	flags := []string{"--dialect", "sqlite3", "--db-url", dbURL}

	out, err := runMigrate(t, append([]string{"up"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "00001_create_users.sql")
	assert.Contains(t, out, "00003_create_tasks.sql")

	out, err = runMigrate(t, append([]string{"up"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "no pending migrations")

	out, err = runMigrate(t, append([]string{"version"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "version 3\n", out)

	out, err = runMigrate(t, append([]string{"down", "--yes"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "00003_create_tasks.sql")

	out, err = runMigrate(t, append([]string{"status"}, flags...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "applied"))
	assert.True(t, strings.HasPrefix(lines[2], "pending"))
}

func TestMigrate_Errors(t *testing.T) {
	_, err := runMigrate(t, "up", "--db-url", "")
	assert.ErrorContains(t, err, "database URL is required")

	_, err = runMigrate(t, "up", "--db-url", "x", "--dialect", "mysql")
	assert.ErrorContains(t, err, "unsupported dialect")
}
