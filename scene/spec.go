// Package scene loads bodies and constraints from YAML files into a world
// and applies edited files to a running one.
package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/milk9111/jointsync/physics"
	"gopkg.in/yaml.v3"
)

// WorldBody is the body name that refers to the static world body.
const WorldBody = "world"

type Spec struct {
	Bodies      []BodySpec       `yaml:"bodies"`
	Constraints []ConstraintSpec `yaml:"constraints"`

	// Dir is the directory relative script paths are resolved against.
	Dir string `yaml:"-"`
}

type BodySpec struct {
	Name       string  `yaml:"name,omitempty"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Rotation   float64 `yaml:"rotation,omitempty"`
	Width      float64 `yaml:"width,omitempty"`
	Height     float64 `yaml:"height,omitempty"`
	Radius     float64 `yaml:"radius,omitempty"`
	Mass       float64 `yaml:"mass,omitempty"`
	Friction   float64 `yaml:"friction,omitempty"`
	Elasticity float64 `yaml:"elasticity,omitempty"`
	Static     bool    `yaml:"static,omitempty"`
}

type ConstraintSpec struct {
	Name   string         `yaml:"name,omitempty"`
	Kind   physics.Kind   `yaml:"kind"`
	BodyA  string         `yaml:"body_a"`
	BodyB  string         `yaml:"body_b"`
	Script string         `yaml:"script,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Empty reports whether s describes nothing.
func (s Spec) Empty() bool {
	return len(s.Bodies) == 0 && len(s.Constraints) == 0
}

// Load reads and parses a scene file.
func Load(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("scene: load %s: %w", path, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return Spec{}, fmt.Errorf("scene: %s: %w", path, err)
	}
	spec.Dir = filepath.Dir(path)
	return spec, nil
}

func Parse(data []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := spec.validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func (s Spec) validate() error {
	seen := make(map[string]bool)
	for _, b := range s.Bodies {
		if b.Name == WorldBody {
			return fmt.Errorf("body name %q is reserved", WorldBody)
		}
		if b.Name != "" && seen[b.Name] {
			return fmt.Errorf("duplicate name %q", b.Name)
		}
		seen[b.Name] = true
	}
	for _, c := range s.Constraints {
		if c.Name != "" && seen[c.Name] {
			return fmt.Errorf("duplicate name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// DecodeComponentSpec converts a loosely typed YAML value into T.
func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// NumericParams decodes the params of c into numbers.
func (c ConstraintSpec) NumericParams() (map[string]float64, error) {
	params, err := DecodeComponentSpec[map[string]float64](c.Params)
	if err != nil {
		return nil, fmt.Errorf("scene: constraint %q params: %w", c.Name, err)
	}
	return params, nil
}

// Marshal encodes v as YAML, the format scene files use.
func Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
