package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/pkg/logger"
)

// DefaultConfigName is the canonical config filename searched for when no
// explicit location is given.
const DefaultConfigName = "taskwell.toml"

// KnownShellInterpreters is the closed set of accepted shell_interpreter
// values.
var KnownShellInterpreters = []string{
	"posix",
	"sh",
	"bash",
	"zsh",
	"fish",
	"pwsh",
	"powershell",
	"python",
}

// Config is the merged view over the root project config and its includes.
type Config struct {
	fs         afero.Fs
	cwd        string
	configName string
	projectDir string

	project  *Partition
	included []*Partition

	tableSupplied bool
}

type Option func(*Config)

// WithFs substitutes the filesystem used for discovery and parsing.
func WithFs(fs afero.Fs) Option {
	return func(c *Config) { c.fs = fs }
}

// WithConfigName overrides the canonical config filename.
func WithConfigName(name string) Option {
	return func(c *Config) { c.configName = name }
}

// WithTable supplies an in-memory section table, skipping file discovery.
func WithTable(table map[string]any) Option {
	return func(c *Config) {
		c.project = newPartition(projectSchema, table, c.cwd, "")
		c.tableSupplied = true
	}
}

func New(cwd string, opts ...Option) *Config {
	if cwd == "" {
		if resolved, err := core.CWDFromPath(""); err == nil {
			cwd = resolved.PathStr()
		}
	}
	c := &Config{
		fs:         afero.NewOsFs(),
		cwd:        cwd,
		configName: DefaultConfigName,
		projectDir: cwd,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.project == nil {
		c.project = newPartition(projectSchema, map[string]any{}, cwd, "")
	}
	return c
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Load discovers and parses the project config, then resolves includes. When
// an in-memory table was supplied at construction, discovery is skipped and
// only includes are resolved, once.
func (c *Config) Load(targetDir string) error {
	if c.tableSupplied {
		if c.included == nil {
			return c.loadIncludes()
		}
		return nil
	}

	configPath, err := c.FindConfigFile(targetDir)
	if err != nil {
		return err
	}
	c.projectDir = filepath.Dir(configPath)

	full, err := c.readConfigFile(configPath)
	if err != nil {
		return err
	}
	section, ok := extractSection(full)
	if !ok {
		return core.NewConfigError("no %s configuration found in file at %s", SectionName, configPath)
	}
	c.project = newPartition(projectSchema, section, c.projectDir, configPath)

	return c.loadIncludes()
}

// FindConfigFile resolves the config file location using one of two
// strategies: an explicit target (a config file path or a directory to join
// with the canonical filename), or an upward search from the working
// directory through every ancestor.
func (c *Config) FindConfigFile(targetDir string) (string, error) {
	if targetDir != "" {
		targetPath, err := filepath.Abs(targetDir)
		if err != nil {
			return "", core.WrapConfigError(err, "could not resolve config location %s", targetDir)
		}
		if !c.isConfigFileName(filepath.Base(targetPath)) {
			targetPath = filepath.Join(targetPath, c.configName)
		}
		exists, _ := afero.Exists(c.fs, targetPath)
		if !exists {
			return "", core.NewConfigError(
				"could not find a %s file at the given location: %s", c.configName, targetDir,
			)
		}
		return targetPath, nil
	}

	dir := c.cwd
	for {
		candidate := filepath.Join(dir, c.configName)
		if exists, _ := afero.Exists(c.fs, candidate); exists {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", core.NewConfigError(
				"could not find a %s file in %s or its parents", c.configName, c.cwd,
			)
		}
		dir = parent
	}
}

// isConfigFileName reports whether name looks like a direct config file path
// rather than a directory to join with the canonical filename. The canonical
// filename's own extension is recognized alongside the standard formats.
func (c *Config) isConfigFileName(name string) bool {
	if name == c.configName {
		return true
	}
	ext := filepath.Ext(name)
	if ext == ".toml" || ext == ".json" {
		return true
	}
	return ext != "" && ext == filepath.Ext(c.configName)
}

// readConfigFile parses path as JSON if the filename ends in .json, else as
// TOML. Parse failures become one configuration error wrapping the parser
// error.
func (c *Config) readConfigFile(path string) (map[string]any, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, core.WrapConfigError(err, "could not open file at %s", path)
	}

	full := map[string]any{}
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &full); err != nil {
			return nil, core.WrapConfigError(err, "could not parse json file at %s", path)
		}
		return full, nil
	}
	if err := toml.Unmarshal(data, &full); err != nil {
		return nil, core.WrapConfigError(err, "could not parse toml file at %s", path)
	}
	return full, nil
}

// extractSection pulls the tool.taskwell section out of a parsed file,
// accepting both the nested table and the flattened dotted key.
func extractSection(full map[string]any) (map[string]any, bool) {
	if tool, ok := full[SectionTable].(map[string]any); ok {
		if section, ok := tool[SectionName].(map[string]any); ok {
			return section, true
		}
	}
	if section, ok := full[SectionTable+"."+SectionName].(map[string]any); ok {
		return section, true
	}
	return nil, false
}

// -----------------------------------------------------------------------------
// Includes
// -----------------------------------------------------------------------------

type includeItem struct {
	Path string `mapstructure:"path"`
	CWD  string `mapstructure:"cwd"`
}

func (c *Config) loadIncludes() error {
	c.included = make([]*Partition, 0)

	if !c.project.Options.IsSet("include") {
		return nil
	}
	includeOption, err := c.project.Get("include")
	if err != nil {
		return core.WrapConfigError(err, "invalid include option")
	}

	includes, err := normalizeIncludes(includeOption)
	if err != nil {
		return err
	}

	for _, include := range includes {
		includePath := include.Path
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(c.projectDir, includePath)
		}
		if exists, _ := afero.Exists(c.fs, includePath); !exists {
			logger.NewLogger(nil).Debug("skipping missing include", "path", includePath)
			continue
		}

		full, err := c.readConfigFile(includePath)
		if err != nil {
			return core.WrapConfigError(err, "invalid content in included file from %s", includePath)
		}
		section, ok := extractSection(full)
		if !ok {
			return core.NewConfigError(
				"invalid content in included file from %s: no %s section", includePath, SectionName,
			)
		}

		dir := c.projectDir
		if include.CWD != "" {
			dir = include.CWD
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(c.projectDir, dir)
			}
		}
		c.included = append(c.included, newPartition(includedSchema, section, dir, includePath))
	}
	return nil
}

// normalizeIncludes flattens the include option - a single path string, a
// single {path, cwd?} record, or a list mixing both - into an ordered list
// of records.
func normalizeIncludes(option any) ([]includeItem, error) {
	switch value := option.(type) {
	case string:
		return []includeItem{{Path: value}}, nil
	case map[string]any:
		item, err := decodeIncludeItem(value)
		if err != nil {
			return nil, err
		}
		return []includeItem{item}, nil
	case []any:
		items := make([]includeItem, 0, len(value))
		for _, entry := range value {
			switch e := entry.(type) {
			case string:
				items = append(items, includeItem{Path: e})
			case map[string]any:
				item, err := decodeIncludeItem(e)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			default:
				return nil, core.NewConfigError("invalid item for the include option: %v", entry)
			}
		}
		return items, nil
	case []map[string]any:
		// some decoders hand arrays of tables back in this shape
		items := make([]includeItem, 0, len(value))
		for _, entry := range value {
			item, err := decodeIncludeItem(entry)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, core.NewConfigError("invalid value for the include option: %v", option)
	}
}

func decodeIncludeItem(value map[string]any) (includeItem, error) {
	var item includeItem
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &item,
		ErrorUnused: true,
	})
	if err != nil {
		return item, fmt.Errorf("failed to build include decoder: %w", err)
	}
	if err := decoder.Decode(value); err != nil {
		return item, core.WrapConfigError(err, "invalid item for the include option: %v", value)
	}
	if item.Path == "" {
		return item, core.NewConfigError("invalid item for the include option: %v", value)
	}
	return item, nil
}

// -----------------------------------------------------------------------------
// Merged views
// -----------------------------------------------------------------------------

// Tasks returns the merged task table. Included configs are overlaid in
// reverse declaration order first, so the last include is applied first and
// is most easily overridden; the root project's own tasks are applied last
// and always win.
func (c *Config) Tasks() map[string]any {
	result := make(map[string]any)
	for i := len(c.included) - 1; i >= 0; i-- {
		for name, def := range c.included[i].Tasks() {
			result[name] = def
		}
	}
	for name, def := range c.project.Tasks() {
		result[name] = def
	}
	return result
}

func (c *Config) TaskNames() []string {
	tasks := c.Tasks()
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *Config) HasTask(name string) bool {
	_, ok := c.Tasks()[name]
	return ok
}

// TaskPartition returns the partition a task definition came from, for
// cwd/envfile scoping. The root wins, mirroring the merge precedence.
func (c *Config) TaskPartition(name string) *Partition {
	if _, ok := c.project.Tasks()[name]; ok {
		return c.project
	}
	for _, partition := range c.included {
		if _, ok := partition.Tasks()[name]; ok {
			return partition
		}
	}
	return c.project
}

// -----------------------------------------------------------------------------
// Global accessors (root project only)
// -----------------------------------------------------------------------------

func (c *Config) Executor() map[string]any {
	if !c.project.Options.IsSet("executor") {
		return map[string]any{"type": "auto"}
	}
	return c.project.Options.GetMap("executor")
}

func (c *Config) GlobalEnv() map[string]any {
	return c.project.Options.GetMap("env")
}

func (c *Config) GlobalEnvfiles() []string {
	return c.project.Options.GetStringList("envfile")
}

func (c *Config) DefaultTaskType() string {
	return c.project.Options.GetString("default_task_type")
}

func (c *Config) DefaultArrayTaskType() string {
	return c.project.Options.GetString("default_array_task_type")
}

func (c *Config) DefaultArrayItemTaskType() string {
	return c.project.Options.GetString("default_array_item_task_type")
}

func (c *Config) ShellInterpreter() []string {
	return c.project.Options.GetStringList("shell_interpreter")
}

func (c *Config) Verbosity() int {
	return c.project.Options.GetInt("verbosity")
}

func (c *Config) ProjectDir() string {
	return c.projectDir
}

func (c *Config) ProjectPath() string {
	return c.project.Path
}
