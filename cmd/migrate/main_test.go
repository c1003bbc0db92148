package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"create", "down", "redo", "status", "up", "validate", "version"}, commandNames())
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), &config.Config{}, logger.New(logger.Options{Output: os.Stderr}), "sideways", options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown -cmd")
}

func TestRunCreateWritesMigration(t *testing.T) {
	dir := t.TempDir()
	logg := logger.New(logger.Options{Output: os.Stderr})

	err := run(context.Background(), &config.Config{}, logg, "create", options{dir: dir})
	require.Error(t, err)

	require.NoError(t, run(context.Background(), &config.Config{}, logg, "create", options{dir: dir, name: "add_invoice_notes"}))
	matches, err := filepath.Glob(filepath.Join(dir, "*_add_invoice_notes.sql"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
