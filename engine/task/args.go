package task

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
)

// ArgSpec declares one named argument of a task.
type ArgSpec struct {
	Name       string `mapstructure:"name"`
	Default    string `mapstructure:"default"`
	Positional bool   `mapstructure:"positional"`
	Required   bool   `mapstructure:"required"`
	Help       string `mapstructure:"help"`
}

// parseArgSpecs normalizes the args option: a list of bare names, a list of
// records, or a mapping from name to record.
func parseArgSpecs(raw any) ([]ArgSpec, error) {
	switch value := raw.(type) {
	case []any:
		specs := make([]ArgSpec, 0, len(value))
		for _, item := range value {
			switch arg := item.(type) {
			case string:
				specs = append(specs, ArgSpec{Name: arg})
			case map[string]any:
				spec, err := decodeArgSpec(arg)
				if err != nil {
					return nil, err
				}
				specs = append(specs, spec)
			default:
				return nil, fmt.Errorf("invalid arg declaration: %v", item)
			}
		}
		return specs, nil
	case map[string]any:
		names := make([]string, 0, len(value))
		for name := range value {
			names = append(names, name)
		}
		// stable declaration order is lost in a mapping, sort for determinism
		slices.Sort(names)
		specs := make([]ArgSpec, 0, len(names))
		for _, name := range names {
			record, ok := value[name].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid arg declaration for %q", name)
			}
			spec, err := decodeArgSpec(record)
			if err != nil {
				return nil, err
			}
			spec.Name = name
			specs = append(specs, spec)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("invalid args option: %v", raw)
	}
}

func decodeArgSpec(record map[string]any) (ArgSpec, error) {
	var spec ArgSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &spec,
		ErrorUnused: true,
	})
	if err != nil {
		return spec, fmt.Errorf("failed to build arg decoder: %w", err)
	}
	if err := decoder.Decode(record); err != nil {
		return spec, fmt.Errorf("invalid arg declaration: %w", err)
	}
	if spec.Name == "" {
		return spec, fmt.Errorf("arg declaration requires a name: %v", record)
	}
	return spec, nil
}

// bindArgValues matches extra invocation arguments against the declared
// args: `--name value` and `--name=value` flags for named args, leftover
// tokens in order for positional ones, declared defaults for the rest.
func bindArgValues(
	taskName string,
	specs []ArgSpec,
	extraArgs []string,
	e *env.Manager,
) (map[string]string, error) {
	byFlag := make(map[string]*ArgSpec, len(specs))
	for i := range specs {
		byFlag["--"+specs[i].Name] = &specs[i]
	}

	values := make(map[string]string)
	var positional []string
	for i := 0; i < len(extraArgs); i++ {
		arg := extraArgs[i]
		flag, inline, hasInline := strings.Cut(arg, "=")
		if spec, ok := byFlag[flag]; ok {
			if hasInline {
				values[spec.Name] = inline
				continue
			}
			if i+1 >= len(extraArgs) {
				return nil, core.NewExecutionError(taskName,
					"option %s for task %q expects a value", flag, taskName)
			}
			i++
			values[spec.Name] = extraArgs[i]
			continue
		}
		if strings.HasPrefix(arg, "--") {
			return nil, core.NewExecutionError(taskName,
				"unrecognized option %s for task %q", flag, taskName)
		}
		positional = append(positional, arg)
	}

	for _, spec := range specs {
		if _, bound := values[spec.Name]; bound {
			continue
		}
		if spec.Positional && len(positional) > 0 {
			values[spec.Name] = positional[0]
			positional = positional[1:]
			continue
		}
		if spec.Required {
			return nil, core.NewExecutionError(taskName,
				"missing required argument %q for task %q", spec.Name, taskName)
		}
		if spec.Default != "" {
			values[spec.Name] = e.Substitute(spec.Default)
		}
	}
	if len(positional) > 0 {
		return nil, core.NewExecutionError(taskName,
			"unexpected argument %q for task %q", positional[0], taskName)
	}
	return values, nil
}
