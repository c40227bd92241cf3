package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finq.log")
	l := NewIsolatedLogger(path)

	l.Info("UPLOAD", "upload started", map[string]interface{}{"files": 2})
	l.Warn("SELECTION", "recommendations unavailable", nil)
	l.Error("CHAT", "chat request failed", map[string]interface{}{"error": errors.New("boom")})
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "chat request failed", all[0].Message, "newest first")
	assert.Equal(t, "UPLOAD", all[2].Module)

	warns, err := l.GetLogs("WARN", 10)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, "SELECTION", warns[0].Module)

	limited, err := l.GetLogs("", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetLogsMissingFile(t *testing.T) {
	l := NewIsolatedLogger(filepath.Join(t.TempDir(), "absent.log"))
	entries, err := l.GetLogs("", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("X", "ignored", nil)
	entries, err := l.GetLogs("", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
