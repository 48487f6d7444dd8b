package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
)

func TestParseArgSpecs(t *testing.T) {
	t.Run("Should accept a list of bare names", func(t *testing.T) {
		specs, err := parseArgSpecs([]any{"who", "greeting"})
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "who", specs[0].Name)
		assert.Equal(t, "greeting", specs[1].Name)
	})
	t.Run("Should accept a list of records", func(t *testing.T) {
		specs, err := parseArgSpecs([]any{
			map[string]any{"name": "who", "default": "world", "help": "who to greet"},
		})
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, "world", specs[0].Default)
	})
	t.Run("Should accept a mapping from name to record", func(t *testing.T) {
		specs, err := parseArgSpecs(map[string]any{
			"who": map[string]any{"positional": true},
		})
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, "who", specs[0].Name)
		assert.True(t, specs[0].Positional)
	})
	t.Run("Should reject records with unknown keys", func(t *testing.T) {
		_, err := parseArgSpecs([]any{map[string]any{"name": "who", "nope": 1}})
		assert.Error(t, err)
	})
	t.Run("Should reject records without a name", func(t *testing.T) {
		_, err := parseArgSpecs([]any{map[string]any{"default": "x"}})
		assert.Error(t, err)
	})
}

func TestBindArgValues(t *testing.T) {
	specs := []ArgSpec{
		{Name: "who", Positional: true},
		{Name: "greeting", Default: "hello"},
		{Name: "loud"},
	}
	e := env.NewManager(core.EnvMap{"DEFAULT_WHO": "world"})

	t.Run("Should bind flag values with separate and inline forms", func(t *testing.T) {
		values, err := bindArgValues("greet", specs, []string{"--greeting", "hey", "--loud=yes"}, e)
		require.NoError(t, err)
		assert.Equal(t, "hey", values["greeting"])
		assert.Equal(t, "yes", values["loud"])
	})
	t.Run("Should bind leftover tokens to positional args in order", func(t *testing.T) {
		values, err := bindArgValues("greet", specs, []string{"world"}, e)
		require.NoError(t, err)
		assert.Equal(t, "world", values["who"])
	})
	t.Run("Should substitute environment references in defaults", func(t *testing.T) {
		withDefault := []ArgSpec{{Name: "who", Default: "$DEFAULT_WHO"}}
		values, err := bindArgValues("greet", withDefault, nil, e)
		require.NoError(t, err)
		assert.Equal(t, "world", values["who"])
	})
	t.Run("Should fail on a flag without a value", func(t *testing.T) {
		_, err := bindArgValues("greet", specs, []string{"--greeting"}, e)
		require.Error(t, err)
		assert.True(t, core.IsExecutionError(err))
	})
	t.Run("Should fail on unrecognized flags", func(t *testing.T) {
		_, err := bindArgValues("greet", specs, []string{"--nope", "x"}, e)
		assert.Error(t, err)
	})
	t.Run("Should fail on unexpected positional arguments", func(t *testing.T) {
		_, err := bindArgValues("greet", specs, []string{"one", "two"}, e)
		assert.Error(t, err)
	})
	t.Run("Should fail when a required argument is missing", func(t *testing.T) {
		required := []ArgSpec{{Name: "who", Required: true}}
		_, err := bindArgValues("greet", required, nil, e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})
}
