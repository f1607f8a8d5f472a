// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package config loads the application configuration from three layered
// sources, later layers overriding earlier ones:
//
//  1. Built-in defaults.
//  2. An optional YAML file: the explicit path handed to Load, else the
//     KINOGRAPH_CONFIG environment variable, else the first existing
//     entry of DefaultConfigPaths.
//  3. KINOGRAPH_* environment variables from an explicit allowlist.
//
// The loaded Config is immutable and safe for concurrent reads.
package config

import (
	"fmt"
	"time"

	"github.com/kinograph/kinograph/internal/validation"
	"github.com/kinograph/kinograph/recommend"
)

// Config is the root of the application configuration tree.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Session   SessionConfig   `koanf:"session"`
	Recommend RecommendConfig `koanf:"recommend"`
	Trainer   TrainerConfig   `koanf:"trainer"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// CatalogConfig holds the DuckDB catalog settings.
type CatalogConfig struct {
	// Path is the database file, or ":memory:" for an ephemeral catalog.
	Path string `koanf:"path" validate:"required"`

	// Threads caps DuckDB worker threads; 0 uses every CPU.
	Threads int `koanf:"threads" validate:"gte=0"`

	// MaxMemory is DuckDB's memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	// StorePath is the BadgerDB directory for session state; empty keeps
	// sessions in memory only.
	StorePath string `koanf:"store_path"`
}

// RecommendConfig holds the engine tuning knobs. Defaults mirror
// recommend.DefaultConfig.
type RecommendConfig struct {
	TopK          int            `koanf:"top_k" validate:"gte=1"`
	PerQueryLimit int            `koanf:"per_query_limit" validate:"gte=1"`
	NeighborK     int            `koanf:"neighbor_k" validate:"gte=1"`
	MaxVerify     int            `koanf:"max_verify" validate:"gte=1"`
	RatingWeight  float64        `koanf:"rating_weight" validate:"gte=0"`
	Lambda        float64        `koanf:"lambda" validate:"gt=0,lte=1"`
	Weights       WeightsConfig  `koanf:"weights"`
	Properties    []PropertyRule `koanf:"properties" validate:"min=1,dive"`
}

// WeightsConfig sets the merge weight of each candidate source.
type WeightsConfig struct {
	Graph         float64 `koanf:"graph" validate:"gt=0"`
	Preference    float64 `koanf:"preference" validate:"gt=0"`
	Embedding     float64 `koanf:"embedding" validate:"gt=0"`
	Collaborative float64 `koanf:"collaborative" validate:"gte=0"`
}

// PropertyRule is one row of the graph property table.
type PropertyRule struct {
	Property string  `koanf:"property" validate:"required"`
	Weight   float64 `koanf:"weight" validate:"gt=0,lte=1"`
	Reason   string  `koanf:"reason" validate:"required"`
}

// TrainerConfig controls the background training service.
type TrainerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval"`
	TrainOnStart bool          `koanf:"train_on_start"`
}

// defaultConfig returns the built-in defaults. Engine knobs come from
// recommend.DefaultConfig so the two packages cannot drift apart.
func defaultConfig() *Config {
	rec := recommend.DefaultConfig()
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Catalog: CatalogConfig{
			Path:      "kinograph.duckdb",
			Threads:   0,
			MaxMemory: "1GB",
		},
		Session: SessionConfig{
			StorePath: "",
		},
		Recommend: RecommendConfig{
			TopK:          rec.TopK,
			PerQueryLimit: rec.PerQueryLimit,
			NeighborK:     rec.NeighborK,
			MaxVerify:     rec.MaxVerify,
			RatingWeight:  rec.RatingWeight,
			Lambda:        rec.Lambda,
			Weights: WeightsConfig{
				Graph:         rec.Weights.Graph,
				Preference:    rec.Weights.Preference,
				Embedding:     rec.Weights.Embedding,
				Collaborative: rec.Weights.Collaborative,
			},
			Properties: propertyRules(rec.Properties),
		},
		Trainer: TrainerConfig{
			Enabled:      false,
			Interval:     6 * time.Hour,
			TrainOnStart: false,
		},
	}
}

// propertyRules converts the engine's property table into config rows.
func propertyRules(rules []recommend.PropertyRule) []PropertyRule {
	out := make([]PropertyRule, len(rules))
	for i, r := range rules {
		out[i] = PropertyRule{Property: r.Property, Weight: r.Weight, Reason: r.Reason}
	}
	return out
}

// Engine converts the section into the engine's runtime configuration.
func (r RecommendConfig) Engine() recommend.Config {
	props := make([]recommend.PropertyRule, len(r.Properties))
	for i, p := range r.Properties {
		props[i] = recommend.PropertyRule{Property: p.Property, Weight: p.Weight, Reason: p.Reason}
	}

	return recommend.Config{
		TopK:          r.TopK,
		PerQueryLimit: r.PerQueryLimit,
		NeighborK:     r.NeighborK,
		MaxVerify:     r.MaxVerify,
		RatingWeight:  r.RatingWeight,
		Lambda:        r.Lambda,
		Weights: recommend.SourceWeights{
			Graph:         r.Weights.Graph,
			Preference:    r.Weights.Preference,
			Embedding:     r.Weights.Embedding,
			Collaborative: r.Weights.Collaborative,
		},
		Properties: props,
	}
}

// Validate checks tag rules first, then the cross-field rules tags
// cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}

	if err := c.validateWeights(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.validateTrainer()
}

// validateWeights enforces the source weight ordering: explicit
// preferences outrank graph evidence, graph evidence outranks
// similarity-only evidence.
func (c *Config) validateWeights() error {
	w := c.Recommend.Weights
	if w.Preference <= w.Graph {
		return fmt.Errorf("recommend.weights.preference (%g) must exceed recommend.weights.graph (%g)",
			w.Preference, w.Graph)
	}
	if w.Embedding >= w.Graph {
		return fmt.Errorf("recommend.weights.embedding (%g) must stay below recommend.weights.graph (%g)",
			w.Embedding, w.Graph)
	}
	return nil
}

// validateRecommend checks relations between engine knobs.
func (c *Config) validateRecommend() error {
	if c.Recommend.MaxVerify < c.Recommend.TopK {
		return fmt.Errorf("recommend.max_verify (%d) must be at least recommend.top_k (%d)",
			c.Recommend.MaxVerify, c.Recommend.TopK)
	}
	return nil
}

// validateTrainer checks the trainer schedule (only when enabled).
func (c *Config) validateTrainer() error {
	if !c.Trainer.Enabled {
		return nil
	}
	if c.Trainer.Interval < time.Minute {
		return fmt.Errorf("trainer.interval must be at least 1m, got %s", c.Trainer.Interval)
	}
	return nil
}
