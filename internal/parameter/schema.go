package parameter

import (
	"encoding/json"
	"fmt"
	"sort"
)

// jsonSchema is the minimal JSON Schema subset tool input schemas and
// generated CLI commands both speak: an object with named properties, each
// with a primitive type, and a required list.
type jsonSchema struct {
	Type       string                `json:"type"`
	Properties map[string]schemaProp `json:"properties"`
	Required   []string              `json:"required"`
}

type schemaProp struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Default     any             `json:"default"`
	Enum        []string        `json:"enum"`
	Format      string          `json:"format"`
	Pattern     string          `json:"pattern"`
	Minimum     *float64        `json:"minimum"`
	Maximum     *float64        `json:"maximum"`
	Items       *schemaPropItem `json:"items"`
}

type schemaPropItem struct {
	Type string `json:"type"`
}

// FromJSONSchema translates a tool's JSON Schema input schema into the
// Parameter model every tool, CLI command, and interactive prompt shares.
// It is the single place schema shape decisions live, so the CLI generator
// and tool input validation read the same shape the same way.
//
// A property whose type has no Parameter or CLI representation ("null",
// "function", or anything else JSON Schema allows but a flag/value can't
// carry) is rejected rather than silently coerced.
func FromJSONSchema(raw json.RawMessage) ([]Parameter, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var schema jsonSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("parsing input schema: %w", err)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	// Stable order: map iteration is random, and callers (the CLI
	// generator in particular) need flag order to not vary between runs.
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]Parameter, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]

		typ, err := typeFromSchema(name, prop.Type)
		if err != nil {
			return nil, err
		}
		if len(prop.Enum) > 0 && typ == TypeString {
			typ = TypeChoice
		}

		p := Parameter{
			Name:        name,
			Description: prop.Description,
			Required:    required[name],
			Type:        typ,
			Default:     prop.Default,
			Choices:     prop.Enum,
			Pattern:     prop.Pattern,
			Min:         prop.Minimum,
			Max:         prop.Maximum,
			Format:      prop.Format,
		}
		if typ == TypeArray && prop.Items != nil {
			itemType, err := typeFromSchema(name+".items", prop.Items.Type)
			if err != nil {
				return nil, err
			}
			p.ItemType = itemType
		}
		params = append(params, p)
	}
	return params, nil
}

func typeFromSchema(property, schemaType string) (Type, error) {
	switch schemaType {
	case "", "string":
		return TypeString, nil
	case "boolean":
		return TypeBoolean, nil
	case "integer", "number":
		return TypeNumber, nil
	case "array":
		return TypeArray, nil
	case "object":
		return TypeObject, nil
	default:
		return "", fmt.Errorf("unsupported type %q for property %q", schemaType, property)
	}
}
