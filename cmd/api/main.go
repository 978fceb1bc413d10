package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"filinglens/pkg/api/filings"
	"filinglens/pkg/core/config"
	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/facts"
	"filinglens/pkg/core/filing"
	"filinglens/pkg/core/oracle"
	"filinglens/pkg/core/pipeline"
	"filinglens/pkg/core/prompt"
	"filinglens/pkg/core/store"
)

func main() {
	godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/filinglens.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	if dir := os.Getenv("PROMPTS_DIR"); dir != "" {
		if err := prompt.LoadFromDirectory(dir); err != nil {
			log.Warn().Err(err).Msg("prompt overrides not loaded, using built-in prompts")
		} else {
			log.Info().Int("prompts", prompt.Get().Count()).Str("dir", dir).Msg("loaded prompt overrides")
		}
	}

	var client *oracle.Client
	provider, err := oracle.NewProvider(cfg.Oracle.Provider, cfg.Oracle.Model)
	if err != nil {
		log.Warn().Err(err).Msg("no oracle provider, running deterministic-only")
	} else {
		client = oracle.NewClient(provider, cfg.Oracle.Timeout)
	}

	ctx := context.Background()
	if cfg.Storage.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.Storage.DatabaseURL); err != nil {
			log.Warn().Err(err).Msg("database unavailable, using file cache")
		}
		defer store.Close()
	}
	cache := store.NewTreeCache(store.GetPool(), cfg.Storage.CacheDir)

	parser := filing.NewParser(client, filing.ParserConfig{
		Detector: filing.DetectorConfig{
			ChunkBytes: cfg.Parser.ChunkBytes,
			MaxChunks:  cfg.Parser.MaxChunks,
		},
		MaxTablesPerItem: cfg.Parser.MaxTablesPerItem,
	}, log)
	filter := facts.NewFilter(client, facts.Config{
		SizeThresholdBytes: cfg.Filter.SizeThresholdBytes,
		SampleFacts:        cfg.Filter.SampleFacts,
		MaxFacts:           cfg.Filter.MaxFacts,
		FallbackMaxFacts:   cfg.Filter.FallbackMaxFacts,
		TimeWindowYears:    cfg.Filter.TimeWindowYears,
	}, nil, log)

	source := edgar.NewClient(os.Getenv("SEC_USER_AGENT"), log)
	orch := pipeline.NewOrchestrator(source, parser, filter, cache, log)
	server := filings.NewServer(orch, log)

	log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Server.Addr, server); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
