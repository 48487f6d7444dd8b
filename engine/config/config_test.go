package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/task"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestConfig_FindConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/work/project/taskwell.toml", "[tool.taskwell.tasks]\ngreet = \"echo hi\"\n")

	t.Run("Should find the config by searching upward from the working directory", func(t *testing.T) {
		cfg := config.New("/work/project/sub/dir", config.WithFs(fs))
		path, err := cfg.FindConfigFile("")
		require.NoError(t, err)
		assert.Equal(t, "/work/project/taskwell.toml", path)
	})
	t.Run("Should join the canonical filename onto an explicit directory", func(t *testing.T) {
		cfg := config.New("/elsewhere", config.WithFs(fs))
		path, err := cfg.FindConfigFile("/work/project")
		require.NoError(t, err)
		assert.Equal(t, "/work/project/taskwell.toml", path)
	})
	t.Run("Should accept an explicit config file path", func(t *testing.T) {
		cfg := config.New("/elsewhere", config.WithFs(fs))
		path, err := cfg.FindConfigFile("/work/project/taskwell.toml")
		require.NoError(t, err)
		assert.Equal(t, "/work/project/taskwell.toml", path)
	})
	t.Run("Should accept an explicit path to an overridden config filename", func(t *testing.T) {
		writeFile(t, fs, "/work/other/pipeline.cfg", "[tool.taskwell.tasks]\ngreet = \"echo hi\"\n")
		cfg := config.New("/elsewhere", config.WithFs(fs), config.WithConfigName("pipeline.cfg"))
		path, err := cfg.FindConfigFile("/work/other/pipeline.cfg")
		require.NoError(t, err)
		assert.Equal(t, "/work/other/pipeline.cfg", path)
	})
	t.Run("Should fail when no ancestor has a config file", func(t *testing.T) {
		cfg := config.New("/nowhere/at/all", config.WithFs(fs))
		_, err := cfg.FindConfigFile("")
		assert.Error(t, err)
	})
	t.Run("Should fail when the explicit location has no config file", func(t *testing.T) {
		cfg := config.New("/elsewhere", config.WithFs(fs))
		_, err := cfg.FindConfigFile("/empty/dir")
		assert.Error(t, err)
	})
}

func TestConfig_Load(t *testing.T) {
	t.Run("Should load the nested section from a toml file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", `
[tool.taskwell]
verbosity = 1

[tool.taskwell.tasks]
greet = "echo hi"
`)
		cfg := config.New("/proj", config.WithFs(fs))
		require.NoError(t, cfg.Load(""))
		assert.Equal(t, 1, cfg.Verbosity())
		assert.True(t, cfg.HasTask("greet"))
		assert.Equal(t, "/proj", cfg.ProjectDir())
		assert.Equal(t, "/proj/taskwell.toml", cfg.ProjectPath())
	})
	t.Run("Should accept the flattened section key", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.json",
			`{"tool.taskwell": {"tasks": {"greet": "echo hi"}}}`)
		cfg := config.New("/proj", config.WithFs(fs))
		require.NoError(t, cfg.Load("/proj/taskwell.json"))
		assert.True(t, cfg.HasTask("greet"))
	})
	t.Run("Should parse json when the filename ends in .json", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.json",
			`{"tool": {"taskwell": {"tasks": {"build": "make"}}}}`)
		cfg := config.New("/proj", config.WithFs(fs))
		require.NoError(t, cfg.Load("/proj/taskwell.json"))
		assert.True(t, cfg.HasTask("build"))
	})
	t.Run("Should fail when the file has no recognized section", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", "[tool.other]\nx = 1\n")
		cfg := config.New("/proj", config.WithFs(fs))
		assert.Error(t, cfg.Load(""))
	})
	t.Run("Should wrap parse failures as config errors", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", "not [valid toml")
		cfg := config.New("/proj", config.WithFs(fs))
		err := cfg.Load("")
		require.Error(t, err)
		assert.True(t, core.IsConfigError(err))
	})
}

func TestConfig_Includes(t *testing.T) {
	t.Run("Should merge includes with the root always winning", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", `
[tool.taskwell]
include = ["first.toml", "second.toml"]

[tool.taskwell.tasks]
root-task = "echo root"
shared = "echo from-root"
`)
		writeFile(t, fs, "/proj/first.toml", `
[tool.taskwell.tasks]
first-task = "echo first"
shared = "echo from-first"
overlap = "echo first-overlap"
`)
		writeFile(t, fs, "/proj/second.toml", `
[tool.taskwell.tasks]
second-task = "echo second"
overlap = "echo second-overlap"
`)
		cfg := config.New("/proj", config.WithFs(fs))
		require.NoError(t, cfg.Load(""))

		tasks := cfg.Tasks()
		assert.Equal(t, "echo from-root", tasks["shared"])
		// an earlier include beats a later one
		assert.Equal(t, "echo first-overlap", tasks["overlap"])
		assert.ElementsMatch(t,
			[]string{"root-task", "shared", "overlap", "first-task", "second-task"},
			cfg.TaskNames(),
		)
	})
	t.Run("Should skip includes whose file is missing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", `
[tool.taskwell]
include = "absent.toml"

[tool.taskwell.tasks]
greet = "echo hi"
`)
		cfg := config.New("/proj", config.WithFs(fs))
		require.NoError(t, cfg.Load(""))
		assert.ElementsMatch(t, []string{"greet"}, cfg.TaskNames())
	})
	t.Run("Should fail on unparseable include content", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", "[tool.taskwell]\ninclude = \"bad.toml\"\n")
		writeFile(t, fs, "/proj/bad.toml", "not [valid toml")
		cfg := config.New("/proj", config.WithFs(fs))
		err := cfg.Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid content in included file")
	})
	t.Run("Should resolve the include record cwd against the project dir", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/taskwell.toml", `
[tool.taskwell]

[[tool.taskwell.include]]
path = "sub/extra.toml"
cwd = "sub"

[tool.taskwell.tasks]
greet = "echo hi"
`)
		writeFile(t, fs, "/proj/sub/extra.toml", "[tool.taskwell.tasks]\nextra = \"echo extra\"\n")
		cfg := config.New("/proj", config.WithFs(fs))
		require.NoError(t, cfg.Load(""))
		assert.Equal(t, "/proj/sub", cfg.TaskPartition("extra").Dir)
		assert.Equal(t, "/proj", cfg.TaskPartition("greet").Dir)
	})
	t.Run("Should reject include records with unknown keys", func(t *testing.T) {
		cfg := config.New("/proj", config.WithTable(map[string]any{
			"include": []any{map[string]any{"path": "x.toml", "nope": true}},
			"tasks":   map[string]any{},
		}))
		assert.Error(t, cfg.Load(""))
	})
}

func TestConfig_Validate(t *testing.T) {
	validate := func(table map[string]any) error {
		cfg := config.New("/proj", config.WithTable(table))
		if err := cfg.Load(""); err != nil {
			return err
		}
		return cfg.Validate(task.Validator())
	}

	t.Run("Should accept a minimal valid config", func(t *testing.T) {
		assert.NoError(t, validate(map[string]any{
			"tasks": map[string]any{"greet": "echo hi"},
		}))
	})
	t.Run("Should reject unknown section keys", func(t *testing.T) {
		err := validate(map[string]any{"taskz": map[string]any{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported key")
	})
	t.Run("Should reject a default task type with the wrong content shape", func(t *testing.T) {
		err := validate(map[string]any{
			"default_task_type": "sequence",
			"tasks":             map[string]any{},
		})
		assert.Error(t, err)
	})
	t.Run("Should reject an unknown executor type", func(t *testing.T) {
		err := validate(map[string]any{
			"executor": map[string]any{"type": "warp"},
			"tasks":    map[string]any{},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "executor")
	})
	t.Run("Should reject verbosity outside the supported range", func(t *testing.T) {
		err := validate(map[string]any{
			"verbosity": 3,
			"tasks":     map[string]any{},
		})
		assert.Error(t, err)
	})
	t.Run("Should reject unknown shell interpreters", func(t *testing.T) {
		err := validate(map[string]any{
			"shell_interpreter": "tcsh",
			"tasks":             map[string]any{},
		})
		assert.Error(t, err)
	})
	t.Run("Should reject malformed global env entries", func(t *testing.T) {
		err := validate(map[string]any{
			"env":   map[string]any{"X": 1},
			"tasks": map[string]any{},
		})
		assert.Error(t, err)

		err = validate(map[string]any{
			"env":   map[string]any{"X": map[string]any{"fallback": "v"}},
			"tasks": map[string]any{},
		})
		assert.Error(t, err)
	})
	t.Run("Should accept env entries with a default record", func(t *testing.T) {
		assert.NoError(t, validate(map[string]any{
			"env":   map[string]any{"X": map[string]any{"default": "v"}},
			"tasks": map[string]any{},
		}))
	})
	t.Run("Should validate every task in the merged table", func(t *testing.T) {
		err := validate(map[string]any{
			"tasks": map[string]any{"bad task name": "echo hi"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "whitespace")
	})
}

func TestConfig_Defaults(t *testing.T) {
	cfg := config.New("/proj", config.WithTable(map[string]any{
		"tasks": map[string]any{},
	}))
	require.NoError(t, cfg.Load(""))

	t.Run("Should default the task type options", func(t *testing.T) {
		assert.Equal(t, "cmd", cfg.DefaultTaskType())
		assert.Equal(t, "sequence", cfg.DefaultArrayTaskType())
		assert.Equal(t, "ref", cfg.DefaultArrayItemTaskType())
	})
	t.Run("Should default the executor to auto", func(t *testing.T) {
		assert.Equal(t, map[string]any{"type": "auto"}, cfg.Executor())
	})
	t.Run("Should default the shell interpreter to posix", func(t *testing.T) {
		assert.Equal(t, []string{"posix"}, cfg.ShellInterpreter())
	})
	t.Run("Should default verbosity to zero", func(t *testing.T) {
		assert.Equal(t, 0, cfg.Verbosity())
	})
}
