package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Should write structured fields at the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})
		log.Info("task finished", "task", "greet")
		assert.Contains(t, buf.String(), "task finished")
		assert.Contains(t, buf.String(), "greet")
	})
	t.Run("Should suppress entries below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: WarnLevel, Output: &buf, TimeFormat: "15:04:05"})
		log.Info("hidden")
		log.Warn("visible")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})
	t.Run("Should emit JSON when configured", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true, TimeFormat: "15:04:05"})
		log.Info("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})
	t.Run("Should silence everything at the disabled level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DisabledLevel, Output: &buf, TimeFormat: "15:04:05"})
		log.Error("nothing")
		assert.Empty(t, buf.String())
	})
	t.Run("Should fall back to the test config under go test", func(t *testing.T) {
		require.True(t, IsTestEnvironment())
		assert.NotNil(t, NewLogger(nil))
	})
}

func TestLogger_With(t *testing.T) {
	t.Run("Should carry bound fields into every entry", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})
		log.With("task", "greet").Info("running")
		assert.Contains(t, buf.String(), "greet")
	})
}

func TestContextWithLogger(t *testing.T) {
	t.Run("Should round-trip the logger through a context", func(t *testing.T) {
		log := NewLogger(TestConfig())
		ctx := ContextWithLogger(context.Background(), log)
		assert.Equal(t, log, FromContext(ctx))
	})
	t.Run("Should fall back to a default logger without one", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}
