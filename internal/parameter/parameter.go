// Package parameter implements the typed parameter system shared by tools,
// CLI-generated commands, and interactive prompting: declaration, JSON
// Schema-style validation, conditional visibility, and user-facing error
// enhancement (choice suggestions, pattern examples).
package parameter

import (
	"fmt"

	"github.com/forgecraft/sah/internal/errs"
)

// Type identifies the kind of value a Parameter accepts.
type Type string

const (
	TypeString      Type = "string"
	TypeBoolean     Type = "boolean"
	TypeNumber      Type = "number"
	TypeChoice      Type = "choice"
	TypeMultiChoice Type = "multi_choice"

	// TypeArray and TypeObject exist only for FromJSONSchema's CLI/MCP
	// schema translation: JSON Schema has no equivalent of the five
	// canonical Parameter types above for a list or a nested object, and
	// the CLI generator still needs to carry that shape through.
	TypeArray  Type = "array"
	TypeObject Type = "object"
)

// ParseType maps a loosely-typed string (as might appear in a schema or
// config file) onto a Type, defaulting to TypeString for anything it
// doesn't recognize rather than erroring.
func ParseType(s string) Type {
	switch s {
	case "string":
		return TypeString
	case "boolean", "bool":
		return TypeBoolean
	case "number", "numeric", "int", "integer", "float":
		return TypeNumber
	case "choice", "select":
		return TypeChoice
	case "multi_choice", "multichoice", "multiselect":
		return TypeMultiChoice
	default:
		return TypeString
	}
}

// Condition makes a Parameter's requiredness/visibility depend on another
// parameter's value, e.g. "show 'branch_name' only when 'flexible_branch'
// equals true".
type Condition struct {
	Parameter string
	Equals    any
}

// Range is an inclusive [Min, Max] bound used for both LengthRange (a
// string's rune count) and SelectionRange (a multi_choice's selection
// count).
type Range struct {
	Min int
	Max int
}

// Parameter is a single named, typed input accepted by a tool or a
// generated CLI command.
type Parameter struct {
	Name        string
	Description string
	Required    bool
	Type        Type
	Default     any
	Choices     []string
	Pattern     string
	Min         *float64
	Max         *float64
	Step        *float64
	// LengthRange bounds a TypeString value's rune count.
	LengthRange *Range
	// SelectionRange bounds a TypeMultiChoice value's selected-item count.
	SelectionRange *Range
	Condition      *Condition
	// Format carries a JSON Schema "format" hint (e.g. "date-time") through
	// to CLI help text; ValidateAll does not enforce it.
	Format string
	// ItemType is the element Type for a TypeArray parameter.
	ItemType Type
}

// New creates a non-required Parameter with no constraints.
func New(name, description string, typ Type) Parameter {
	return Parameter{Name: name, Description: description, Type: typ}
}

func (p Parameter) WithRequired(required bool) Parameter {
	p.Required = required
	return p
}

func (p Parameter) WithDefault(v any) Parameter {
	p.Default = v
	return p
}

func (p Parameter) WithChoices(choices ...string) Parameter {
	p.Choices = choices
	return p
}

func (p Parameter) WithPattern(pattern string) Parameter {
	p.Pattern = pattern
	return p
}

func (p Parameter) WithRange(min, max *float64) Parameter {
	p.Min, p.Max = min, max
	return p
}

func (p Parameter) WithCondition(paramName string, equals any) Parameter {
	p.Condition = &Condition{Parameter: paramName, Equals: equals}
	return p
}

func (p Parameter) WithStep(step float64) Parameter {
	p.Step = f64(step)
	return p
}

// WithLengthRange bounds a string parameter's rune count between min and
// max, inclusive.
func (p Parameter) WithLengthRange(min, max int) Parameter {
	p.LengthRange = &Range{Min: min, Max: max}
	return p
}

// WithSelectionRange bounds how many items a multi_choice parameter's
// value may select, inclusive.
func (p Parameter) WithSelectionRange(min, max int) Parameter {
	p.SelectionRange = &Range{Min: min, Max: max}
	return p
}

func f64(v float64) *float64 { return &v }

// ValidationFailed builds the generic "parameter validation failed" error.
func ValidationFailed(message string) *errs.E {
	return errs.New(errs.KindInvalidParameter, "validation_failed", message, errs.Error)
}

// MissingRequired builds the "required parameter is missing" error.
func MissingRequired(name string) *errs.E {
	return errs.New(errs.KindInvalidParameter, "missing_required",
		fmt.Sprintf("required parameter %q is missing", name), errs.Error)
}

// MissingConditional builds the "required conditional parameter is
// missing" error, naming the condition that made the parameter required
// and how to supply it on the command line.
func MissingConditional(p Parameter) *errs.E {
	cond := fmt.Sprintf("%s == %v", p.Condition.Parameter, p.Condition.Equals)
	return errs.New(errs.KindInvalidParameter, "missing_conditional",
		fmt.Sprintf("parameter %q is required when %s", p.Name, cond), errs.Error).
		WithData(map[string]any{"condition": cond}).
		WithEnhancement(errs.Enhanced{
			Suggestions: []string{fmt.Sprintf("supply it with --%s <value>", p.Name)},
			Recoverable: true,
		})
}

// TypeMismatch builds the "expected X, got Y" error.
func TypeMismatch(name, expected, actual string) *errs.E {
	return errs.New(errs.KindInvalidParameter, "type_mismatch",
		fmt.Sprintf("parameter %q expects %s, got %s", name, expected, actual), errs.Error)
}

// InvalidChoice builds the "value not in allowed choices" error, enhanced
// with a "did you mean" suggestion when one scores well enough.
func InvalidChoice(name, value string, choices []string) *errs.E {
	e := errs.New(errs.KindInvalidParameter, "invalid_choice",
		fmt.Sprintf("parameter %q value %q is not in allowed choices: %v", name, value, choices), errs.Error)
	e.Data = map[string]any{"value": value, "choices": choices}
	if suggestion, ok := didYouMean(value, choices); ok {
		e = e.WithEnhancement(errs.Enhanced{
			Suggestions: []string{fmt.Sprintf("did you mean %q?", suggestion)},
			Recoverable: true,
		})
	}
	return e
}

// OutOfRange builds the "value out of [min, max]" error.
func OutOfRange(name string, value float64, min, max *float64) *errs.E {
	return errs.New(errs.KindInvalidParameter, "out_of_range",
		fmt.Sprintf("parameter %q value %v is out of range [%v, %v]", name, value, ptrOrNil(min), ptrOrNil(max)),
		errs.Error)
}

// LengthOutOfRange builds a length-violation error, enhanced with a
// quantified "n more characters" / "n fewer characters" hint.
func LengthOutOfRange(name, value string, r Range) *errs.E {
	n := len([]rune(value))
	e := errs.New(errs.KindInvalidParameter, "length_out_of_range",
		fmt.Sprintf("parameter %q value has length %d, must be between %d and %d", name, n, r.Min, r.Max),
		errs.Error)
	var hint string
	switch {
	case n < r.Min:
		hint = fmt.Sprintf("needs %d more characters", r.Min-n)
	case n > r.Max:
		hint = fmt.Sprintf("must be at most %d characters (%d over)", r.Max, n-r.Max)
	}
	if hint != "" {
		e = e.WithEnhancement(errs.Enhanced{Suggestions: []string{hint}, Recoverable: true})
	}
	return e
}

// SelectionOutOfRange builds a multi_choice selection-count violation
// error.
func SelectionOutOfRange(name string, count int, r Range) *errs.E {
	return errs.New(errs.KindInvalidParameter, "selection_out_of_range",
		fmt.Sprintf("parameter %q selects %d items, must select between %d and %d", name, count, r.Min, r.Max),
		errs.Error)
}

// PatternMismatch builds the "value doesn't match pattern" error, enhanced
// with example values matching the pattern when a bank is registered for it.
func PatternMismatch(name, value, pattern string) *errs.E {
	e := errs.New(errs.KindInvalidParameter, "pattern_mismatch",
		fmt.Sprintf("parameter %q value %q does not match required pattern %q", name, value, pattern), errs.Error)
	examples := patternExamples(pattern)
	description := patternDescription(pattern)
	if len(examples) > 0 || description != "" {
		e = e.WithEnhancement(errs.Enhanced{Explanation: description, Examples: examples, Recoverable: true})
	}
	return e
}

// CircularDependency builds the conditional-parameter cycle error. The
// message intentionally contains the literal substring "circular
// dependency" so callers and tests can match on it without depending on
// exact wording elsewhere.
func CircularDependency(cycle []string) *errs.E {
	return errs.New(errs.KindInvalidParameter, "circular_dependency",
		fmt.Sprintf("circular dependency detected among conditional parameters: %v", cycle), errs.Critical)
}

func ptrOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
