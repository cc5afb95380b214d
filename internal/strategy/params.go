package strategy

import "fmt"

// Kind represents the declared type of a strategy parameter
type Kind string

const (
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindEnum   Kind = "enum"
)

// Value represents a typed parameter value
type Value struct {
	Kind   Kind    `json:"kind"`
	Number float64 `json:"number,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	Enum   string  `json:"enum,omitempty"`
}

// NumberValue creates a number value
func NumberValue(v float64) Value { return Value{Kind: KindNumber, Number: v} }

// BoolValue creates a bool value
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// EnumValue creates an enum value
func EnumValue(v string) Value { return Value{Kind: KindEnum, Enum: v} }

// Bounds represents the numeric search space of a parameter
type Bounds struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step" yaml:"step"`
}

// ParameterSpec declares a parameter's type, default and optional bounds
type ParameterSpec struct {
	Kind    Kind    `json:"kind" yaml:"kind"`
	Default Value   `json:"default" yaml:"default"`
	Bounds  *Bounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// Params maps parameter names to concrete values
type Params map[string]Value

// NumberOr returns the named number parameter, or fallback when absent.
func (p Params) NumberOr(name string, fallback float64) float64 {
	if v, ok := p[name]; ok && v.Kind == KindNumber {
		return v.Number
	}
	return fallback
}

// ValidateParams checks a concrete parameter set against the declared specs.
// Undeclared names, kind mismatches and out-of-bounds numbers are rejected.
func ValidateParams(def *Definition, params Params) error {
	for name, value := range params {
		spec, ok := def.Parameters[name]
		if !ok {
			return fmt.Errorf("undeclared parameter: %s", name)
		}
		if spec.Kind != value.Kind {
			return fmt.Errorf("parameter %s: expected %s, got %s", name, spec.Kind, value.Kind)
		}
		if spec.Kind == KindNumber && spec.Bounds != nil {
			if value.Number < spec.Bounds.Min || value.Number > spec.Bounds.Max {
				return fmt.Errorf("parameter %s: value %v outside bounds [%v, %v]",
					name, value.Number, spec.Bounds.Min, spec.Bounds.Max)
			}
		}
	}
	return nil
}

// DefaultParams returns the declared defaults for every parameter.
func DefaultParams(def *Definition) Params {
	params := make(Params, len(def.Parameters))
	for name, spec := range def.Parameters {
		params[name] = spec.Default
	}
	return params
}
