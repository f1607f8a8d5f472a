// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where the config file is searched, in order.
// The first existing file wins.
var DefaultConfigPaths = []string{
	"kinograph.yaml",
	"config/kinograph.yaml",
	"/etc/kinograph/kinograph.yaml",
}

const (
	// EnvPrefix marks the environment variables the loader reads.
	EnvPrefix = "KINOGRAPH_"

	// ConfigPathEnvVar overrides the config file search path.
	ConfigPathEnvVar = "KINOGRAPH_CONFIG"
)

// Load assembles the configuration from defaults, an optional YAML file
// and environment overrides. explicitPath (usually a --config flag) must
// exist when given; the file found through the search paths is optional.
// It returns the validated config and the path of the file used, empty
// when the configuration came from defaults and environment alone.
func Load(explicitPath string) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, "", fmt.Errorf("load defaults: %w", err)
	}

	path, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envK := koanf.New(".")
	if err := envK.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, "", fmt.Errorf("load environment: %w", err)
	}

	// KINOGRAPH_PROPERTIES arrives as a comma-separated list of property
	// IDs; it filters the configured rule table rather than replacing it,
	// so it must not reach the unmarshal step as a string.
	var propertyFilter []string
	if s, ok := envK.Get("recommend.properties").(string); ok {
		propertyFilter = splitList(s)
		envK.Delete("recommend.properties")
	}

	if err := k.Merge(envK); err != nil {
		return nil, "", fmt.Errorf("merge environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, "", fmt.Errorf("unmarshal configuration: %w", err)
	}

	if len(propertyFilter) > 0 {
		rules, err := filterProperties(cfg.Recommend.Properties, propertyFilter)
		if err != nil {
			return nil, "", err
		}
		cfg.Recommend.Properties = rules
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}

// findConfigFile resolves the config file path. An explicit path must
// exist; the environment variable and the default paths are skipped
// silently when missing.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// envAllowlist maps KINOGRAPH_* variable names (prefix stripped,
// lowercased) to config paths. Variables outside the list are ignored so
// unrelated environment noise cannot leak into the configuration.
var envAllowlist = map[string]string{
	"log_level":  "log.level",
	"log_format": "log.format",

	"catalog_path":       "catalog.path",
	"catalog_threads":    "catalog.threads",
	"catalog_max_memory": "catalog.max_memory",

	"session_store_path": "session.store_path",

	"top_k":           "recommend.top_k",
	"per_query_limit": "recommend.per_query_limit",
	"neighbor_k":      "recommend.neighbor_k",
	"max_verify":      "recommend.max_verify",
	"rating_weight":   "recommend.rating_weight",
	"lambda":          "recommend.lambda",
	"properties":      "recommend.properties",

	"weight_graph":         "recommend.weights.graph",
	"weight_preference":    "recommend.weights.preference",
	"weight_embedding":     "recommend.weights.embedding",
	"weight_collaborative": "recommend.weights.collaborative",

	"trainer_enabled":  "trainer.enabled",
	"trainer_interval": "trainer.interval",
	"train_on_start":   "trainer.train_on_start",
}

// envTransform maps an environment variable name to its config path, or
// "" to skip it.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if path, ok := envAllowlist[key]; ok {
		return path
	}
	return ""
}

// splitList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// filterProperties keeps the rules named by ids, in id order. Unknown
// ids are errors.
func filterProperties(rules []PropertyRule, ids []string) ([]PropertyRule, error) {
	byID := make(map[string]PropertyRule, len(rules))
	for _, r := range rules {
		byID[r.Property] = r
	}

	out := make([]PropertyRule, 0, len(ids))
	for _, id := range ids {
		rule, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown property %q in %sPROPERTIES", id, EnvPrefix)
		}
		out = append(out, rule)
	}
	return out, nil
}
