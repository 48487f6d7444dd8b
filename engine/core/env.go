package core

import (
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// EnvMap
// -----------------------------------------------------------------------------

type EnvMap map[string]string

func (e EnvMap) Clone() EnvMap {
	if e == nil {
		return EnvMap{}
	}
	out := make(EnvMap, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// AsSlice renders the map in KEY=VALUE form with deterministic ordering.
func (e EnvMap) AsSlice() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(e))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, e[k]))
	}
	return out
}
