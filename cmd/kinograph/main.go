// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package main is the Kinograph command line interface.
//
// Kinograph has no server transport; the CLI drives the recommendation
// pipeline with a scripted conversation. Each input line is one parsed
// user turn (a session.Update as JSON); the program applies it to the
// user's session, runs the engine and prints the result:
//
//	echo '{"Seeds":["Q603"]}' | kinograph --data catalog.duckdb --user alice
//
// Components initialize in order: configuration (koanf), logging
// (zerolog), DuckDB catalog, vector index (embeddings streamed from the
// catalog), session manager (Badger-backed when session.store_path is
// set), recommendation engine with its four candidate sources, and the
// optional training supervisor.
//
// The process exits non-zero only when setup fails. Malformed script
// lines and degraded pipeline stages are logged and survived.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/catalog"
	"github.com/kinograph/kinograph/config"
	"github.com/kinograph/kinograph/internal/logging"
	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/recommend/diversity"
	"github.com/kinograph/kinograph/recommend/sources"
	"github.com/kinograph/kinograph/session"
	"github.com/kinograph/kinograph/supervisor"
	"github.com/kinograph/kinograph/vector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kinograph: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	configPath string
	dataPath   string
	userID     string
	k          int
	scriptPath string
	train      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "path to the YAML configuration file")
	flag.StringVar(&f.dataPath, "data", "", "catalog database path (overrides catalog.path)")
	flag.StringVar(&f.userID, "user", "local", "user ID for the conversation session")
	flag.IntVar(&f.k, "k", 0, "number of recommendations per turn (0 uses recommend.top_k)")
	flag.StringVar(&f.scriptPath, "script", "", "conversation script file (default: stdin)")
	flag.BoolVar(&f.train, "train", false, "train learning sources once before the conversation")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, cfgFile, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.dataPath != "" {
		cfg.Catalog.Path = flags.dataPath
	}
	if flags.k <= 0 {
		flags.k = cfg.Recommend.TopK
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	log := logging.Logger()
	if cfgFile != "" {
		log.Info().Str("file", cfgFile).Msg("configuration loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := catalog.Open(catalog.Config{
		Path:      cfg.Catalog.Path,
		Threads:   cfg.Catalog.Threads,
		MaxMemory: cfg.Catalog.MaxMemory,
	})
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer db.Close()

	// A failed or empty embedding load is survivable: the embedding
	// source proposes nothing and MMR falls back to plain truncation,
	// but graph evidence still produces results.
	idx := vector.NewIndex(0)
	if loaded, lerr := db.LoadEmbeddings(ctx, idx); lerr != nil {
		log.Warn().Err(lerr).Int("loaded", loaded).
			Msg("embedding load incomplete, similarity features reduced")
	}

	store, err := session.NewStore(cfg.Session.StorePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	manager := session.NewManager(store)
	defer manager.Close()

	engine, err := buildEngine(cfg, db, idx, log)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if flags.train {
		if terr := engine.Train(ctx); terr != nil {
			log.Warn().Err(terr).Msg("training finished with errors")
		}
	}

	if cfg.Trainer.Enabled {
		tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
		tree.Add(supervisor.NewTrainer(engine, supervisor.TrainerConfig{
			Interval:     cfg.Trainer.Interval,
			TrainOnStart: cfg.Trainer.TrainOnStart,
		}, log))
		tree.ServeBackground(ctx)
	}

	script, closeScript, err := openScript(flags.scriptPath)
	if err != nil {
		return err
	}
	defer closeScript()

	return converse(ctx, script, manager, engine, flags.userID, flags.k, log)
}

// buildEngine wires the engine with the catalog, the vector index and
// all four candidate sources. The graph store goes behind a circuit
// breaker so a struggling catalog sheds load instead of queueing it.
func buildEngine(cfg *config.Config, db *catalog.DB, idx *vector.Index,
	log zerolog.Logger) (*recommend.Engine, error) {

	engCfg := cfg.Recommend.Engine()
	graph := recommend.NewBreakerGraphStore(db, log)

	engine, err := recommend.New(engCfg, recommend.Deps{
		Graph:    graph,
		Vectors:  idx,
		Labels:   db,
		Images:   db,
		Selector: diversity.NewMMR(idx, engCfg.Lambda),
		Log:      log,
	})
	if err != nil {
		return nil, err
	}

	engine.Register(sources.NewGraph(graph, engCfg.Properties, engCfg.PerQueryLimit, log),
		engCfg.Weights.Graph)
	engine.Register(sources.NewPreference(graph, engCfg.PerQueryLimit, log),
		engCfg.Weights.Preference)
	engine.Register(sources.NewEmbedding(idx, engCfg.NeighborK, log),
		engCfg.Weights.Embedding)
	engine.Register(sources.NewCollaborative(db, 0, log),
		engCfg.Weights.Collaborative)

	return engine, nil
}

// openScript returns the conversation input and its cleanup function.
func openScript(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// converse runs the conversation loop: one session update per input
// line, one recommendation result per update. Recommended IDs feed back
// into the session so follow-up turns exercise the ratchet.
func converse(ctx context.Context, script io.Reader, manager *session.Manager,
	engine *recommend.Engine, userID string, k int, log zerolog.Logger) error {

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	scanner := bufio.NewScanner(script)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	turn := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		turn++

		var update session.Update
		if err := json.Unmarshal(line, &update); err != nil {
			log.Warn().Err(err).Int("turn", turn).Msg("skipping malformed script line")
			continue
		}

		var result *recommend.Result
		err := manager.With(userID, func(s *session.Session) error {
			s.Apply(update)

			res, rerr := engine.Recommend(ctx, s, k)
			if rerr != nil {
				return rerr
			}

			ids := make([]string, 0, len(res.Recommendations))
			for _, rec := range res.Recommendations {
				ids = append(ids, rec.ID)
			}
			s.AddRecommended(ids)

			result = res
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Int("turn", turn).Msg("turn failed")
			continue
		}

		pretty, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintf(out, "%s\n", pretty)
		out.Flush()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	log.Info().Int("turns", turn).Msg("conversation complete")
	return nil
}
