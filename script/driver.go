// Package script runs tengo scripts that animate constraint parameters.
//
// A script defines an update function:
//
//	math := import("math")
//	update := func(tick, params, state) {
//		return {max_distance: 2 + math.sin(tick / 30.0)}
//	}
//
// params holds the current parameter values by name. The returned map, if
// any, lists the parameters to change. The script runs from the top every
// tick; state is a map that persists between runs.
package script

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

const dispatch = `
__result := update(__tick, __params, __state)
`

// Driver is a compiled script. It is not safe for concurrent use.
type Driver struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
}

// Load reads and compiles the script at path.
func Load(path string) (*Driver, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}
	return Compile(path, src)
}

// Compile compiles src. name is only used in errors.
func Compile(name string, src []byte) (*Driver, error) {
	full := make([]byte, 0, len(src)+len(dispatch)+1)
	full = append(full, src...)
	full = append(full, '\n')
	full = append(full, dispatch...)

	s := tengo.NewScript(full)
	_ = s.Add("__tick", 0)
	_ = s.Add("__params", map[string]interface{}{})
	_ = s.Add("__state", map[string]interface{}{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &Driver{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (d *Driver) Name() string {
	return d.name
}

// Run calls update with the tick number and the current parameters and
// returns the parameters it asked to change.
func (d *Driver) Run(tick int, params map[string]float64) (map[string]float64, error) {
	in := make(map[string]tengo.Object, len(params))
	for k, v := range params {
		in[k] = &tengo.Float{Value: v}
	}
	if err := d.compiled.Set("__tick", tick); err != nil {
		return nil, err
	}
	if err := d.compiled.Set("__params", &tengo.ImmutableMap{Value: in}); err != nil {
		return nil, err
	}
	if err := d.compiled.Set("__state", d.state); err != nil {
		return nil, err
	}
	if err := d.compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: run %s: %w", d.name, err)
	}

	result := d.compiled.Get("__result")
	if result.IsUndefined() {
		return nil, nil
	}
	m, ok := result.Object().(*tengo.Map)
	if !ok {
		return nil, fmt.Errorf("script: %s: update returned %s, want map", d.name, result.ValueType())
	}
	out := make(map[string]float64, len(m.Value))
	for k, obj := range m.Value {
		v, ok := tengo.ToFloat64(obj)
		if !ok {
			return nil, fmt.Errorf("script: %s: parameter %q is %s, want number", d.name, k, obj.TypeName())
		}
		out[k] = v
	}
	return out, nil
}
