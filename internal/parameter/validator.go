package parameter

import (
	"fmt"
	"math"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/forgecraft/sah/internal/errs"
)

// Validator checks parameter values against their declarations. Compiled
// regex patterns are cached since the same pattern is typically reused
// across many validation calls for a single tool invocation.
type Validator struct {
	patternCache *lru.Cache[string, *regexp.Regexp]
}

// NewValidator creates a Validator with a bounded pattern cache.
func NewValidator() *Validator {
	cache, err := lru.New[string, *regexp.Regexp](256)
	if err != nil {
		// Only returns an error for a non-positive size, which 256 never is.
		panic(err)
	}
	return &Validator{patternCache: cache}
}

func (v *Validator) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := v.patternCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	v.patternCache.Add(pattern, re)
	return re, nil
}

func valueType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ValidateValue checks a single value against one parameter's constraints.
func (v *Validator) ValidateValue(p Parameter, value any) error {
	switch p.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return TypeMismatch(p.Name, "string", valueType(value))
		}
		if p.Pattern != "" {
			re, err := v.compile(p.Pattern)
			if err == nil && !re.MatchString(s) {
				return PatternMismatch(p.Name, s, p.Pattern)
			}
		}
		if p.LengthRange != nil {
			n := len([]rune(s))
			if n < p.LengthRange.Min || n > p.LengthRange.Max {
				return LengthOutOfRange(p.Name, s, *p.LengthRange)
			}
		}
		if len(p.Choices) > 0 && !contains(p.Choices, s) {
			return InvalidChoice(p.Name, s, p.Choices)
		}

	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return TypeMismatch(p.Name, "boolean", valueType(value))
		}

	case TypeNumber:
		n, ok := asFloat64(value)
		if !ok {
			return TypeMismatch(p.Name, "number", valueType(value))
		}
		if p.Min != nil && n < *p.Min {
			return OutOfRange(p.Name, n, p.Min, p.Max)
		}
		if p.Max != nil && n > *p.Max {
			return OutOfRange(p.Name, n, p.Min, p.Max)
		}
		if p.Step != nil && *p.Step > 0 {
			base := 0.0
			if p.Min != nil {
				base = *p.Min
			}
			steps := (n - base) / *p.Step
			if math.Abs(steps-math.Round(steps)) > 1e-9 {
				return OutOfRange(p.Name, n, p.Min, p.Max)
			}
		}

	case TypeChoice:
		s, ok := value.(string)
		if !ok {
			return TypeMismatch(p.Name, "string", valueType(value))
		}
		if len(p.Choices) > 0 && !contains(p.Choices, s) {
			return InvalidChoice(p.Name, s, p.Choices)
		}

	case TypeMultiChoice:
		arr, ok := value.([]any)
		if !ok {
			return TypeMismatch(p.Name, "array", valueType(value))
		}
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				return TypeMismatch(p.Name, "array of strings", "array with non-string items")
			}
			if len(p.Choices) > 0 && !contains(p.Choices, s) {
				return InvalidChoice(p.Name, s, p.Choices)
			}
		}
		if p.SelectionRange != nil {
			if len(arr) < p.SelectionRange.Min || len(arr) > p.SelectionRange.Max {
				return SelectionOutOfRange(p.Name, len(arr), *p.SelectionRange)
			}
		}
	}
	return nil
}

// ValidateAll checks every parameter against values, honoring Conditions:
// a conditional parameter is only required/validated when its governing
// parameter's current value matches Condition.Equals.
func (v *Validator) ValidateAll(parameters []Parameter, values map[string]any) error {
	for _, p := range parameters {
		if p.Condition != nil {
			governing, present := values[p.Condition.Parameter]
			if !present || !equalValues(governing, p.Condition.Equals) {
				continue // not applicable given current values
			}
		}

		value, present := values[p.Name]
		if !present {
			if p.Required {
				if p.Condition != nil {
					return MissingConditional(p)
				}
				return MissingRequired(p.Name)
			}
			continue
		}
		if err := v.ValidateValue(p, value); err != nil {
			return err
		}
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	af, aok := asFloat64(a)
	bf, bok := asFloat64(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// This blank assignment is a compile-time assertion that the constructors in
// parameter.go produce errs.Severifier values, matching the Severity
// contract the rest of the system relies on.
var _ errs.Severifier = (*errs.E)(nil)
