package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINQ_CHAT_API_URL", "http://chat.local/api/rag")
	t.Setenv("FINQ_MAX_FILE_SIZE_MB", "not-a-number")

	cfg := Load()

	assert.Equal(t, "http://chat.local/api/rag", cfg.Backend.ChatBaseURL)
	assert.Equal(t, 10, cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"duration string", "250ms", 250 * time.Millisecond},
		{"bare seconds", "30", 30 * time.Second},
		{"garbage falls back", "soon", 5 * time.Second},
		{"empty falls back", "", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FINQ_TEST_DURATION", tt.value)
			assert.Equal(t, tt.expected, getEnvAsDuration("FINQ_TEST_DURATION", 5*time.Second))
		})
	}
}
