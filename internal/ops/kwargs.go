package ops

import (
	"fmt"
	"math"
)

// Kwargs is the decoded keyword-argument mapping of one tool call.
// Values come straight from JSON, so numbers are float64 and lists are
// []any. The accessors coerce and validate; a failed coercion is an
// invocation error surfaced back to the model.
type Kwargs map[string]any

func (kw Kwargs) require(name string) (any, error) {
	v, ok := kw[name]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", name)
	}
	return v, nil
}

// String returns a required string argument.
func (kw Kwargs) String(name string) (string, error) {
	v, err := kw.require(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

// OptString returns a string argument or def when absent.
func (kw Kwargs) OptString(name, def string) (string, error) {
	if _, ok := kw[name]; !ok {
		return def, nil
	}
	return kw.String(name)
}

// Int returns a required integer argument. JSON numbers arrive as
// float64; fractional values are rejected rather than silently rounded.
func (kw Kwargs) Int(name string) (int, error) {
	v, err := kw.require(name)
	if err != nil {
		return 0, err
	}
	return coerceInt(name, v)
}

// OptInt returns an integer argument or def when absent.
func (kw Kwargs) OptInt(name string, def int) (int, error) {
	v, ok := kw[name]
	if !ok {
		return def, nil
	}
	return coerceInt(name, v)
}

func coerceInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", name, n)
		}
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", name, v)
	}
}

// Float returns a required numeric argument.
func (kw Kwargs) Float(name string) (float64, error) {
	v, err := kw.require(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", name, v)
	}
}

// OptBool returns a boolean argument or def when absent.
func (kw Kwargs) OptBool(name string, def bool) (bool, error) {
	v, ok := kw[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("argument %q must be a boolean, got %T", name, v)
	}
	return b, nil
}

// Strings returns a required argument as a list of strings, accepting
// either a single string or a list of strings.
func (kw Kwargs) Strings(name string) ([]string, error) {
	v, err := kw.require(name)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q must contain only strings, got %T", name, e)
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("argument %q must not be empty", name)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %q must be a string or list of strings, got %T", name, v)
	}
}

// Literal returns a required argument as-is: a scalar or list of
// scalars. Used where the underlying operation accepts any literal
// (e.g. a filter comparand).
func (kw Kwargs) Literal(name string) (any, error) {
	return kw.require(name)
}
