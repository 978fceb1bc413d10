// Command pipeline parses a company's latest filing from the terminal:
//
//	pipeline -company PGR                        print the section tree
//	pipeline -company PGR -section Part2.Item7   print one section
//	pipeline -company PGR -question "combined ratio trend"   filtered facts
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"filinglens/pkg/core/config"
	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/facts"
	"filinglens/pkg/core/filing"
	"filinglens/pkg/core/oracle"
	"filinglens/pkg/core/pipeline"
	"filinglens/pkg/core/store"
)

func main() {
	company := flag.String("company", "", "ticker or CIK (required)")
	form := flag.String("form", "10-K", "SEC form type")
	section := flag.String("section", "", "section path, e.g. Part2.Item7")
	question := flag.String("question", "", "question to answer from company facts")
	noOracle := flag.Bool("no-oracle", false, "skip the LLM, deterministic strategies only")
	flag.Parse()

	if *company == "" {
		flag.Usage()
		os.Exit(2)
	}

	godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	var client *oracle.Client
	if !*noOracle {
		if provider, err := oracle.NewProvider(cfg.Oracle.Provider, cfg.Oracle.Model); err != nil {
			log.Warn().Err(err).Msg("no oracle provider, continuing without one")
		} else {
			client = oracle.NewClient(provider, cfg.Oracle.Timeout)
		}
	}

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
	cache := store.NewTreeCache(nil, cfg.Storage.CacheDir)
	source := edgar.NewClient(os.Getenv("SEC_USER_AGENT"), log)
	orch := pipeline.NewOrchestrator(source, parser, filter, cache, log)

	ctx := context.Background()

	switch {
	case *question != "":
		out, err := orch.CompanyData(ctx, *company, *question)
		if err != nil {
			log.Fatal().Err(err).Msg("company data")
		}
		printJSON(out)

	case *section != "":
		sec, meta, err := orch.GetSection(ctx, *company, *form, *section)
		if err != nil {
			log.Fatal().Err(err).Msg("get section")
		}
		fmt.Printf("%s %s (%s, filed %s)\n\n", meta.CompanyName, meta.Form, meta.AccessionNumber, meta.FilingDate)
		fmt.Printf("## %s: %s\n\n%s\n", sec.Path, sec.Title, sec.Content)
		for _, v := range sec.Visuals {
			fmt.Printf("\n[visual] %s\n", v.Description)
		}

	default:
		tree, meta, err := orch.ParseFiling(ctx, *company, *form)
		if err != nil {
			log.Fatal().Err(err).Msg("parse filing")
		}
		fmt.Printf("%s %s (%s, filed %s)\n\n", meta.CompanyName, meta.Form, meta.AccessionNumber, meta.FilingDate)
		for _, sec := range tree.Sections {
			fmt.Printf("  %-18s %-90q %8d chars  %d visuals\n",
				sec.Path, sec.Title, len(sec.Content), len(sec.Visuals))
		}
		if len(tree.Missing) > 0 {
			fmt.Printf("\nnot found: %v\n", tree.Missing)
		}
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
