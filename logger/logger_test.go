package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"user_id", 7, "access_token", "abc", "JWT_SECRET", "s", "dangling"})
	assert.Equal(t, []interface{}{"user_id", 7, "access_token", "[REDACTED]", "JWT_SECRET", "[REDACTED]", "dangling"}, got)
}

func TestLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("handler", "SubmitReview").Info("review recorded", "item_id", "1:abc", "token", "t")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "review recorded", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "SubmitReview", fields["handler"])
	assert.Equal(t, "1:abc", fields["item_id"])
	assert.Equal(t, "[REDACTED]", fields["token"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "test"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}
