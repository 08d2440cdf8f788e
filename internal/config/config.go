// Package config resolves sah's project configuration: a merge of
// sah.toml/sah.yaml/sah.yml/sah.json at the project root, overlaid with
// environment variables, plus the filesystem layout under
// .swissarmyhammer/ that every other component reads from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// configFileNames lists the recognized config file names in the fixed
// precedence order the merge walks them in. A later file in this list
// overlays an earlier one for any key it also sets, except where the
// format-key tie-break rule (see mergeFiles) applies.
var configFileNames = []string{"sah.toml", "sah.yaml", "sah.yml", "sah.json"}

// Config holds all configuration for the sah server and CLI.
// Precedence: environment variables > config file merge > defaults.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Transport TransportConfig `toml:"transport" yaml:"transport"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	Content   ContentConfig   `toml:"content" yaml:"content"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Session   SessionConfig   `toml:"session" yaml:"session"`
	Paths     Paths           `toml:"-" yaml:"-"` // derived, not loaded from file
}

// SessionConfig controls the background compaction sweep the CLI's
// "serve" command schedules over internal/session's Manager.
type SessionConfig struct {
	// PreserveRecent is the number of most recent messages a compaction
	// never folds into the summary.
	PreserveRecent int `toml:"preserve_recent" yaml:"preserve_recent"`
	// ContextLimit is the estimated-token threshold a session must exceed
	// to become a compaction candidate.
	ContextLimit int `toml:"context_limit" yaml:"context_limit"`
	// CompactionIntervalSeconds is how often the background sweep runs.
	CompactionIntervalSeconds int `toml:"compaction_interval_seconds" yaml:"compaction_interval_seconds"`
}

// ServerConfig holds MCP server metadata.
type ServerConfig struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`
}

// TransportConfig holds transport-related settings.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `toml:"mode" yaml:"mode"`
	// Port is the HTTP listen port (default: 8443). Only used when Mode is "http".
	Port string `toml:"port" yaml:"port"`
	// Host is the HTTP listen address (default: "127.0.0.1"). Only used when Mode is "http".
	Host string `toml:"host" yaml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins (default: "*").
	CORSOrigins string `toml:"cors_origins" yaml:"cors_origins"`
	// BearerToken, if non-empty, is required in the Authorization header
	// for HTTP transport requests.
	BearerToken string `toml:"bearer_token" yaml:"bearer_token"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn, error
}

// ContentConfig selects the active content-validation security profile.
type ContentConfig struct {
	Profile string `toml:"profile" yaml:"profile"` // strict, moderate, permissive
}

// RateLimitConfig configures the process-wide tool-call rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `toml:"burst" yaml:"burst"`
}

// Paths is the derived .swissarmyhammer/ filesystem layout, rooted at
// whatever directory Load was called against.
type Paths struct {
	Root      string // the directory containing .swissarmyhammer/
	StateDir  string // {root}/.swissarmyhammer
	IssuesDir string // {root}/.swissarmyhammer/issues
	TodoDir   string // {root}/.swissarmyhammer/todo
	Workflows string // {root}/.swissarmyhammer/workflows
	Rules     string // {root}/.swissarmyhammer/rules
	Sessions  string // {root}/.swissarmyhammer/sessions
	MemosDir  string // {root}/.swissarmyhammer/memos
	KanbanDir string // {root}/.kanban
	AbortFile string // {root}/.swissarmyhammer/.abort
}

func derivePaths(root string) Paths {
	state := filepath.Join(root, ".swissarmyhammer")
	return Paths{
		Root:      root,
		StateDir:  state,
		IssuesDir: filepath.Join(state, "issues"),
		TodoDir:   filepath.Join(state, "todo"),
		Workflows: filepath.Join(state, "workflows"),
		Rules:     filepath.Join(state, "rules"),
		Sessions:  filepath.Join(state, "sessions"),
		MemosDir:  filepath.Join(state, "memos"),
		KanbanDir: filepath.Join(root, ".kanban"),
		AbortFile: filepath.Join(state, ".abort"),
	}
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "sah",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:        "stdio",
			Port:        "8443",
			Host:        "127.0.0.1",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
		Content: ContentConfig{
			Profile: "moderate",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Session: SessionConfig{
			PreserveRecent:            10,
			ContextLimit:              4096,
			CompactionIntervalSeconds: 300,
		},
	}
}

// Load resolves configuration by merging every recognized config file
// found at root (sah.toml, sah.yaml, sah.yml, sah.json; an empty file
// of any of these is valid and contributes nothing) on top of defaults,
// then layering environment variables on top of that, and finally
// deriving the .swissarmyhammer/ path layout.
func Load(root string) (*Config, error) {
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
	}

	merged, err := mergeFiles(root)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := applyMerged(cfg, merged); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.Paths = derivePaths(root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFiles reads every present config file at root and merges their
// top-level key/value maps in configFileNames order. A later file
// overlays an earlier one for any key both set, EXCEPT: if exactly one
// of the files contributing a given key declares a top-level "format"
// key, that file's value wins regardless of load order.
func mergeFiles(root string) (map[string]any, error) {
	type loaded struct {
		name      string
		hasFormat bool
		values    map[string]any
	}

	var files []loaded
	for _, name := range configFileNames {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		values, err := decodeFile(name, data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		_, hasFormat := values["format"]
		files = append(files, loaded{name: name, hasFormat: hasFormat, values: values})
	}

	merged := make(map[string]any)
	owner := make(map[string]string) // key -> name of the file current value came from
	for _, f := range files {
		for k, v := range f.values {
			existingOwner, exists := owner[k]
			if !exists {
				merged[k] = v
				owner[k] = f.name
				continue
			}

			existingHasFormat := false
			for _, ef := range files {
				if ef.name == existingOwner {
					existingHasFormat = ef.hasFormat
					break
				}
			}

			switch {
			case f.hasFormat && !existingHasFormat:
				// This file is the sole format-bearing contributor to this
				// key; it wins the tie regardless of load order.
				merged[k] = v
				owner[k] = f.name
			case !f.hasFormat && existingHasFormat:
				// The earlier value already came from the sole
				// format-bearing file; keep it.
			default:
				// Neither or both files declare "format": plain last-wins.
				merged[k] = v
				owner[k] = f.name
			}
		}
	}
	return merged, nil
}

func decodeFile(name string, data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	switch filepath.Ext(name) {
	case ".toml":
		var v map[string]any
		if _, err := toml.Decode(string(data), &v); err != nil {
			return nil, err
		}
		return v, nil
	case ".yaml", ".yml":
		var v map[string]any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if v == nil {
			v = map[string]any{}
		}
		return v, nil
	case ".json":
		return decodeJSONMap(data)
	default:
		return nil, fmt.Errorf("unrecognized config format: %s", name)
	}
}

// applyMerged overlays the generic merged map onto cfg by round-tripping
// it through TOML, re-using the struct tags already declared on Config
// rather than hand-writing a second set of field assignments.
func applyMerged(cfg *Config, merged map[string]any) error {
	if len(merged) == 0 {
		return nil
	}
	delete(merged, "format") // not a real config field, only a tie-break marker
	buf, err := tomlEncodeMap(merged)
	if err != nil {
		return fmt.Errorf("normalizing merged config: %w", err)
	}
	if _, err := toml.Decode(buf, cfg); err != nil {
		return fmt.Errorf("applying merged config: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables on top of existing config
// values. An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	envOverride("SAH_TRANSPORT", &c.Transport.Mode)
	envOverride("SAH_PORT", &c.Transport.Port)
	envOverride("SAH_HOST", &c.Transport.Host)
	envOverride("SAH_CORS_ORIGINS", &c.Transport.CORSOrigins)
	envOverride("SAH_BEARER_TOKEN", &c.Transport.BearerToken)
	envOverride("SAH_LOG_LEVEL", &c.Log.Level)
	envOverride("SAH_CONTENT_PROFILE", &c.Content.Profile)

	if v := os.Getenv("SAH_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimit.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("SAH_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.Burst = n
		}
	}
}

// Validate checks that required fields are present and internally
// consistent.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}
	switch c.Content.Profile {
	case "strict", "moderate", "permissive":
	default:
		return fmt.Errorf("invalid content profile: %q (must be \"strict\", \"moderate\", or \"permissive\")", c.Content.Profile)
	}
	return nil
}

func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
