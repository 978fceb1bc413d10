// Package pipeline wires EDGAR retrieval, filing parsing and data filtering
// into the operations the API exposes.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/facts"
	"filinglens/pkg/core/filing"
)

// FilingSource retrieves filings and fact datasets. Implemented by
// *edgar.Client; stubbed in tests.
type FilingSource interface {
	LookupCIK(ctx context.Context, ticker string) (string, error)
	LatestFiling(ctx context.Context, cik, form string) (*edgar.FilingMetadata, error)
	FetchFiling(ctx context.Context, meta *edgar.FilingMetadata) (filing.RawDocument, error)
	CompanyFacts(ctx context.Context, cik string) (facts.Dataset, error)
}

// TreeStore caches parsed trees. Implemented by *store.TreeCache.
type TreeStore interface {
	Get(ctx context.Context, accession string) (*filing.FilingTree, error)
	Save(ctx context.Context, meta *edgar.FilingMetadata, tree *filing.FilingTree) error
}

// Orchestrator runs the end to end flows: fetch, parse, cache, filter.
type Orchestrator struct {
	source FilingSource
	parser *filing.Parser
	filter *facts.Filter
	cache  TreeStore
	log    zerolog.Logger
}

// NewOrchestrator assembles the pipeline. cache may be nil to disable
// caching.
func NewOrchestrator(source FilingSource, parser *filing.Parser, filter *facts.Filter, cache TreeStore, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{source: source, parser: parser, filter: filter, cache: cache, log: log}
}

// ResolveCIK accepts either a raw CIK or a ticker symbol and returns the
// padded CIK.
func (o *Orchestrator) ResolveCIK(ctx context.Context, company string) (string, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return "", fmt.Errorf("empty company identifier")
	}
	if isNumeric(company) {
		return edgar.PadCIK(company), nil
	}
	return o.source.LookupCIK(ctx, company)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseFiling returns the parsed tree for a company's latest filing of the
// given form, serving from cache when possible.
func (o *Orchestrator) ParseFiling(ctx context.Context, company, form string) (*filing.FilingTree, *edgar.FilingMetadata, error) {
	if form == "" {
		form = "10-K"
	}
	cik, err := o.ResolveCIK(ctx, company)
	if err != nil {
		return nil, nil, err
	}
	meta, err := o.source.LatestFiling(ctx, cik, form)
	if err != nil {
		return nil, nil, err
	}

	if o.cache != nil {
		if tree, err := o.cache.Get(ctx, meta.AccessionNumber); err != nil {
			o.log.Warn().Err(err).Msg("tree cache read failed")
		} else if tree != nil {
			o.log.Info().Str("accession", meta.AccessionNumber).Msg("serving parsed filing from cache")
			return tree, meta, nil
		}
	}

	raw, err := o.source.FetchFiling(ctx, meta)
	if err != nil {
		return nil, nil, err
	}
	tree, err := o.parser.Parse(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	if o.cache != nil {
		if err := o.cache.Save(ctx, meta, tree); err != nil {
			o.log.Warn().Err(err).Msg("tree cache write failed")
		}
	}
	return tree, meta, nil
}

// GetSection parses (or loads) the latest filing and resolves one section by
// path, e.g. "Part2.Item7".
func (o *Orchestrator) GetSection(ctx context.Context, company, form, path string) (*filing.FilingSection, *edgar.FilingMetadata, error) {
	tree, meta, err := o.ParseFiling(ctx, company, form)
	if err != nil {
		return nil, nil, err
	}
	sec, err := tree.GetSectionByPath(path)
	if err != nil {
		return nil, meta, err
	}
	return sec, meta, nil
}

// SearchFiling returns the sections of the latest filing containing any of
// the keywords.
func (o *Orchestrator) SearchFiling(ctx context.Context, company, form string, keywords []string) ([]*filing.FilingSection, *edgar.FilingMetadata, error) {
	tree, meta, err := o.ParseFiling(ctx, company, form)
	if err != nil {
		return nil, nil, err
	}
	return tree.FindSectionsByKeywords(keywords), meta, nil
}

// CompanyData fetches the company's XBRL facts and filters them down to the
// subset relevant to the question.
func (o *Orchestrator) CompanyData(ctx context.Context, company, question string) (facts.FilteredDataset, error) {
	cik, err := o.ResolveCIK(ctx, company)
	if err != nil {
		return facts.FilteredDataset{}, err
	}
	dataset, err := o.source.CompanyFacts(ctx, cik)
	if err != nil {
		return facts.FilteredDataset{}, err
	}
	return o.filter.Filter(ctx, dataset, question), nil
}
