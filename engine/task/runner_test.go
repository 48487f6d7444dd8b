package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseEnv(t *testing.T) {
	t.Run("Should apply global env entries over the process environment", func(t *testing.T) {
		t.Setenv("MODE", "slow")
		cfg := testConfig(t, map[string]any{
			"env": map[string]any{"MODE": "fast"},
		})
		e, err := BaseEnv(cfg)
		require.NoError(t, err)
		v, _ := e.Get("MODE")
		assert.Equal(t, "fast", v)
	})
	t.Run("Should apply default entries only when the variable is unset", func(t *testing.T) {
		t.Setenv("PRESENT", "from-os")
		cfg := testConfig(t, map[string]any{
			"env": map[string]any{
				"PRESENT": map[string]any{"default": "ignored"},
				"ABSENT":  map[string]any{"default": "used"},
			},
		})
		e, err := BaseEnv(cfg)
		require.NoError(t, err)
		present, _ := e.Get("PRESENT")
		absent, _ := e.Get("ABSENT")
		assert.Equal(t, "from-os", present)
		assert.Equal(t, "used", absent)
	})
	t.Run("Should substitute prior variables in entry values", func(t *testing.T) {
		t.Setenv("BASE", "/opt/tool")
		cfg := testConfig(t, map[string]any{
			"env": map[string]any{"BIN": "$BASE/bin"},
		})
		e, err := BaseEnv(cfg)
		require.NoError(t, err)
		v, _ := e.Get("BIN")
		assert.Equal(t, "/opt/tool/bin", v)
	})
}

func TestRunTask(t *testing.T) {
	t.Run("Should resolve, instantiate, and run a named task", func(t *testing.T) {
		cfg := testConfig(t, map[string]any{
			"tasks": map[string]any{"greet": "echo hi"},
		})
		fe := newFakeExecutor()
		rc, reporter := newTestRunContext(fe)

		code, err := RunTask(context.Background(), cfg, "greet", nil, rc)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, []string{"greet"}, reporter.running)
		require.Len(t, fe.jobs, 1)
		assert.Equal(t, "/proj", fe.jobs[0].Dir)
	})
	t.Run("Should fail for unknown tasks", func(t *testing.T) {
		cfg := testConfig(t, map[string]any{})
		fe := newFakeExecutor()
		rc, _ := newTestRunContext(fe)

		_, err := RunTask(context.Background(), cfg, "ghost", nil, rc)
		assert.Error(t, err)
	})
}
