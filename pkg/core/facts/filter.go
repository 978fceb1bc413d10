package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"filinglens/pkg/core/oracle"
	"filinglens/pkg/core/prompt"
	"filinglens/pkg/core/utils"
)

// Config holds the filter tunables. The numbers mirror empirically tuned
// defaults and are configuration, not contract.
type Config struct {
	SizeThresholdBytes int // below this, filtering is a no-op
	SampleFacts        int // concepts per taxonomy in the guidance sample
	MaxFacts           int // per-unit cap on the guided path
	FallbackMaxFacts   int // per-unit cap on the keyword path
	TimeWindowYears    int // recency window for both paths
	ExtraKeywords      []string
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		SizeThresholdBytes: 100 * 1024,
		SampleFacts:        10,
		MaxFacts:           20,
		FallbackMaxFacts:   10,
		TimeWindowYears:    5,
	}
}

// Domain keyword list for the deterministic fallback. The insurance terms at
// the end are the domain-specific extension for carrier filings.
var fallbackKeywords = []string{
	"revenue", "income", "profit", "loss", "assets", "liabilities", "equity",
	"cash", "debt", "earnings", "sales", "expenses", "margin", "ratio",
	"combined", "premium", "claims", "reserves",
}

// Filter reduces oversized datasets to the subset relevant to a question.
// Safe for concurrent use; holds no per-request state.
type Filter struct {
	client  *oracle.Client
	cfg     Config
	matcher Matcher
	now     func() time.Time
	log     zerolog.Logger
}

// NewFilter builds a filter. A nil client disables the guided path and every
// request takes the deterministic fallback. A nil matcher defaults to fuzzy
// substring matching.
func NewFilter(client *oracle.Client, cfg Config, matcher Matcher, log zerolog.Logger) *Filter {
	def := DefaultConfig()
	if cfg.SizeThresholdBytes <= 0 {
		cfg.SizeThresholdBytes = def.SizeThresholdBytes
	}
	if cfg.SampleFacts <= 0 {
		cfg.SampleFacts = def.SampleFacts
	}
	if cfg.MaxFacts <= 0 {
		cfg.MaxFacts = def.MaxFacts
	}
	if cfg.FallbackMaxFacts <= 0 {
		cfg.FallbackMaxFacts = def.FallbackMaxFacts
	}
	if cfg.TimeWindowYears <= 0 {
		cfg.TimeWindowYears = def.TimeWindowYears
	}
	if matcher == nil {
		matcher = FuzzyMatcher{}
	}
	return &Filter{client: client, cfg: cfg, matcher: matcher, now: time.Now, log: log}
}

// Filter returns the reduced dataset for question. It never fails: every
// degradation path ends in a usable, non-empty result.
func (f *Filter) Filter(ctx context.Context, dataset Dataset, question string) FilteredDataset {
	serialized, err := json.Marshal(dataset)
	if err == nil && len(serialized) <= f.cfg.SizeThresholdBytes {
		return FilteredDataset{
			Dataset:              dataset,
			FilterApplied:        false,
			FilterType:           FilterNone,
			OriginalConceptCount: dataset.ConceptCount(),
			FilteredConceptCount: dataset.ConceptCount(),
		}
	}

	f.log.Info().
		Int("bytes", len(serialized)).
		Int("concepts", dataset.ConceptCount()).
		Msg("oversized dataset, filtering")

	if guidance, gErr := f.requestGuidance(ctx, dataset, question); gErr == nil {
		if out, ok := f.applyGuidance(dataset, guidance); ok {
			return out
		}
		f.log.Warn().Msg("guidance matched no concepts, using keyword fallback")
	} else {
		f.log.Warn().Err(gErr).Msg("guidance unavailable, using keyword fallback")
	}

	if out, ok := f.applyKeywordFallback(dataset, question); ok {
		return out
	}

	return f.summarize(dataset)
}

const guidanceSystemPrompt = `You analyze financial datasets to decide which parts answer a question.
Respond with ONLY a JSON object of this shape:
{
  "relevant_concepts": ["list", "of", "relevant", "financial", "concepts"],
  "time_periods": ["recent", "historical", "specific_years"],
  "calculations_needed": ["ratios", "trends", "comparisons"],
  "key_data_points": ["specific", "metrics", "to", "extract"],
  "reasoning": "Brief explanation of why these are relevant"
}`

// requestGuidance asks the oracle which concepts and periods matter for the
// question, using a bounded sample of the dataset as context.
func (f *Filter) requestGuidance(ctx context.Context, dataset Dataset, question string) (Guidance, error) {
	if f.client == nil {
		return Guidance{}, fmt.Errorf("no oracle configured")
	}

	sample := Sample(dataset, f.cfg.SampleFacts, nestedSampleFacts)
	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return Guidance{}, fmt.Errorf("marshal sample: %w", err)
	}

	userPrompt := fmt.Sprintf(`The user asked: %q

Here is a sample of the available dataset structure:
%s

Identify which concepts, time periods and calculations are needed to answer the question.`, question, sampleJSON)

	resp, err := f.client.Ask(ctx, prompt.SystemOr("filter.guidance", guidanceSystemPrompt), userPrompt)
	if err != nil {
		return Guidance{}, err
	}

	var guidance Guidance
	if _, err := utils.SmartParse(resp, &guidance); err != nil {
		return Guidance{}, oracle.NewError(oracle.KindMalformed, err)
	}
	if len(guidance.RelevantConcepts) == 0 {
		return Guidance{}, oracle.NewError(oracle.KindMalformed, fmt.Errorf("guidance named no concepts"))
	}

	f.log.Debug().Strs("concepts", guidance.RelevantConcepts).Msg("guidance received")
	return guidance, nil
}

// applyGuidance keeps concepts matching the guidance, windowed and capped.
// ok is false when nothing matched.
func (f *Filter) applyGuidance(dataset Dataset, guidance Guidance) (FilteredDataset, bool) {
	kept := f.selectConcepts(dataset, func(name string) bool {
		return matchesAny(f.matcher, name, guidance.RelevantConcepts)
	}, f.cfg.MaxFacts)

	if countConcepts(kept) == 0 {
		return FilteredDataset{}, false
	}

	reasoning := guidance.Reasoning
	if reasoning == "" {
		reasoning = "Filtered based on question relevance"
	}
	return FilteredDataset{
		Dataset: Dataset{
			CIK:        dataset.CIK,
			EntityName: dataset.EntityName,
			Facts:      kept,
		},
		FilterApplied:        true,
		FilterType:           FilterGuided,
		Reasoning:            reasoning,
		OriginalConceptCount: dataset.ConceptCount(),
		FilteredConceptCount: countConcepts(kept),
	}, true
}

// applyKeywordFallback keeps concepts whose names contain a domain keyword
// present in the question. ok is false when the question carries no known
// keyword or nothing matched.
func (f *Filter) applyKeywordFallback(dataset Dataset, question string) (FilteredDataset, bool) {
	questionLower := strings.ToLower(question)
	var active []string
	for _, kw := range append(append([]string{}, fallbackKeywords...), f.cfg.ExtraKeywords...) {
		if strings.Contains(questionLower, kw) {
			active = append(active, kw)
		}
	}
	if len(active) == 0 {
		return FilteredDataset{}, false
	}

	f.log.Info().Strs("keywords", active).Msg("applying keyword fallback")

	kept := f.selectConcepts(dataset, func(name string) bool {
		nameLower := strings.ToLower(name)
		for _, kw := range active {
			if strings.Contains(nameLower, kw) {
				return true
			}
		}
		return false
	}, f.cfg.FallbackMaxFacts)

	if countConcepts(kept) == 0 {
		return FilteredDataset{}, false
	}
	return FilteredDataset{
		Dataset: Dataset{
			CIK:        dataset.CIK,
			EntityName: dataset.EntityName,
			Facts:      kept,
		},
		FilterApplied:        true,
		FilterType:           FilterKeyword,
		KeywordsUsed:         active,
		OriginalConceptCount: dataset.ConceptCount(),
		FilteredConceptCount: countConcepts(kept),
	}, true
}

// selectConcepts applies the shared keep-window-cap mechanics: concepts pass
// the predicate, facts stay inside the recency window, and each unit keeps
// at most capPerUnit most-recent facts.
func (f *Filter) selectConcepts(dataset Dataset, keep func(name string) bool, capPerUnit int) map[string]map[string]Concept {
	cutoff := windowCutoff(f.now(), f.cfg.TimeWindowYears)
	out := make(map[string]map[string]Concept)

	for taxonomy, concepts := range dataset.Facts {
		keptConcepts := make(map[string]Concept)
		for name, concept := range concepts {
			if !keep(name) {
				continue
			}
			units := make(map[string][]Fact)
			for unit, values := range concept.Units {
				recent := windowAndCap(values, cutoff, capPerUnit)
				if len(recent) > 0 {
					units[unit] = recent
				}
			}
			if len(units) > 0 {
				keptConcepts[name] = Concept{Label: concept.Label, Units: units}
			}
		}
		if len(keptConcepts) > 0 {
			out[taxonomy] = keptConcepts
		}
	}
	return out
}

// windowAndCap sorts facts most-recent first, drops those before cutoff and
// keeps at most max. Calendar-period comparison only; values pass through
// unchanged.
func windowAndCap(values []Fact, cutoff string, max int) []Fact {
	sorted := make([]Fact, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].End > sorted[j].End })

	var recent []Fact
	for _, fact := range sorted {
		if fact.End < cutoff {
			continue
		}
		recent = append(recent, fact)
		if len(recent) >= max {
			break
		}
	}
	return recent
}

// summarize is the terminal fallback: concept names with unit inventory and
// most-recent single values. A summary, never an empty result.
func (f *Filter) summarize(dataset Dataset) FilteredDataset {
	const maxSummaryConcepts = 20

	summary := make(map[string]map[string]ConceptSummary)
	for taxonomy, concepts := range dataset.Facts {
		names := make([]string, 0, len(concepts))
		for name := range concepts {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > maxSummaryConcepts {
			names = names[:maxSummaryConcepts]
		}

		taxSummary := make(map[string]ConceptSummary, len(names))
		for _, name := range names {
			concept := concepts[name]
			cs := ConceptSummary{}
			for unit, values := range concept.Units {
				cs.AvailableUnits = append(cs.AvailableUnits, unit)
				cs.DataPointsCount += len(values)
				for _, fact := range values {
					if fact.End > cs.MostRecentEnd {
						cs.MostRecentEnd = fact.End
						cs.MostRecentValue = fact.Value
					}
				}
			}
			sort.Strings(cs.AvailableUnits)
			taxSummary[name] = cs
		}
		summary[taxonomy] = taxSummary
	}

	f.log.Info().Msg("no concepts matched, returning summary")

	return FilteredDataset{
		Dataset: Dataset{
			CIK:        dataset.CIK,
			EntityName: dataset.EntityName,
		},
		FilterApplied:        true,
		FilterType:           FilterSummary,
		Reasoning:            "No concepts matched the question; returning a dataset summary.",
		OriginalConceptCount: dataset.ConceptCount(),
		Summary:              summary,
	}
}

func countConcepts(facts map[string]map[string]Concept) int {
	n := 0
	for _, concepts := range facts {
		n += len(concepts)
	}
	return n
}
