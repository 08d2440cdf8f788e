package config

import (
	"bytes"
	"encoding/json"

	"github.com/BurntSushi/toml"
)

// decodeJSONMap parses JSON object data into a generic map, matching the
// shape toml.Decode and yaml.Unmarshal produce for the TOML/YAML paths.
func decodeJSONMap(data []byte) (map[string]any, error) {
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v == nil {
		v = map[string]any{}
	}
	return v, nil
}

// tomlEncodeMap round-trips a generic map back through TOML so the merged
// result can be decoded straight into Config via its existing `toml`
// struct tags, without a second hand-written set of field assignments
// for YAML/JSON sources.
func tomlEncodeMap(m map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return "", err
	}
	return buf.String(), nil
}
