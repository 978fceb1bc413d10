package filing

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"filinglens/pkg/core/oracle"
	"filinglens/pkg/core/prompt"
)

// Outcome tags the result of one boundary strategy attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNoMatch
	OutcomeError
)

// boundaryStrategy locates the start of one canonical section at or after
// searchFrom. Strategies are evaluated in order until one succeeds.
type boundaryStrategy interface {
	Name() string
	FindStart(ctx context.Context, text string, searchFrom int, def SectionDef) (int, Outcome, error)
}

// DetectorConfig bounds the cost of segmentation on pathological documents.
type DetectorConfig struct {
	ChunkBytes int // lookahead window handed to the oracle per attempt
	MaxChunks  int // ceiling on chunks scanned per section before giving up
}

// DefaultDetectorConfig mirrors the tuning used against real filings.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{ChunkBytes: 50 * 1024, MaxChunks: 6}
}

// Detector partitions a cleaned stream into canonical sections. Section
// starts come from an ordered strategy list: the oracle first, then regex
// patterns. A section that neither strategy can place is recorded absent and
// segmentation continues.
type Detector struct {
	schema     *Schema
	strategies []boundaryStrategy
	log        zerolog.Logger
}

// NewDetector builds a detector over schema. A nil client disables the oracle
// strategy and segmentation runs purely on regex patterns.
func NewDetector(schema *Schema, client *oracle.Client, cfg DetectorConfig, log zerolog.Logger) *Detector {
	if cfg.ChunkBytes <= 0 {
		cfg.ChunkBytes = DefaultDetectorConfig().ChunkBytes
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultDetectorConfig().MaxChunks
	}

	var strategies []boundaryStrategy
	if client != nil {
		strategies = append(strategies, &oracleStrategy{client: client, cfg: cfg, schema: schema})
	}
	strategies = append(strategies, &regexStrategy{})

	return &Detector{schema: schema, strategies: strategies, log: log}
}

// Segment returns the ordered, non-overlapping boundaries found in stream and
// the IDs of canonical sections absent from this document. Deterministic
// given the same oracle responses; never fails outright.
func (d *Detector) Segment(ctx context.Context, stream *CleanedStream) ([]SectionBoundary, []string) {
	var starts []SectionBoundary
	var missing []string

	cursor := 0
	for _, id := range d.schema.Sequence() {
		if ctx.Err() != nil {
			// Caller cancelled: publish nothing partial beyond what is complete.
			break
		}
		def, _ := d.schema.Section(id)

		start, strategyName, found := d.locate(ctx, stream.Text, cursor, def)
		if !found {
			missing = append(missing, id)
			d.log.Debug().Str("section", id).Msg("section absent, continuing")
			continue
		}

		starts = append(starts, SectionBoundary{SectionID: id, Start: start})
		d.log.Debug().Str("section", id).Int("start", start).Str("strategy", strategyName).Msg("boundary found")
		// Advance past this header so the next section cannot share a start.
		cursor = start + 1
	}

	// A section's content runs to the start of the next found section, or to
	// document end for the last one.
	for i := range starts {
		if i+1 < len(starts) {
			starts[i].End = starts[i+1].Start
		} else {
			starts[i].End = len(stream.Text)
		}
	}

	return starts, missing
}

// locate runs the strategy list for one section. An oracle error or an
// inconsistent oracle position falls through to the next strategy.
func (d *Detector) locate(ctx context.Context, text string, searchFrom int, def SectionDef) (int, string, bool) {
	for _, strat := range d.strategies {
		pos, outcome, err := strat.FindStart(ctx, text, searchFrom, def)
		switch outcome {
		case OutcomeSuccess:
			if pos >= searchFrom && pos < len(text) {
				return pos, strat.Name(), true
			}
			// Position violates monotonic order: treat as a miss.
			d.log.Debug().Str("section", def.ID).Int("pos", pos).Str("strategy", strat.Name()).Msg("non-monotonic position rejected")
		case OutcomeError:
			if oe, ok := oracle.IsOracleError(err); ok {
				d.log.Warn().Str("section", def.ID).Str("kind", string(oe.Kind)).Msg("oracle failed, falling back")
			}
		}
	}
	return 0, "", false
}

// oracleStrategy asks the oracle for the position of the section header
// within a bounded chunk. The oracle is only ever asked to find the next
// header, never to estimate section length.
type oracleStrategy struct {
	client *oracle.Client
	cfg    DetectorConfig
	schema *Schema
}

func (s *oracleStrategy) Name() string { return "oracle" }

const boundarySystemPrompt = `You locate section headers in SEC annual report filings.
The text may be HTML-encoded, so headers can appear inside markup.
Respond with ONLY the character position where the requested section header begins, as a plain number like "1205", or "NOT_FOUND" if the header is not present in the given text.`

func (s *oracleStrategy) FindStart(ctx context.Context, text string, searchFrom int, def SectionDef) (int, Outcome, error) {
	label := strings.ToUpper(strings.ReplaceAll(def.ID, "_", " "))

	for chunk := 0; chunk < s.cfg.MaxChunks; chunk++ {
		lo := searchFrom + chunk*s.cfg.ChunkBytes
		if lo >= len(text) {
			break
		}
		hi := lo + s.cfg.ChunkBytes
		if hi > len(text) {
			hi = len(text)
		}
		window := text[lo:hi]

		userPrompt := fmt.Sprintf("Find where section %s (%q) begins.\n\nText:\n%s", label, def.Title, window)
		resp, err := s.client.Ask(ctx, prompt.SystemOr("boundary.locate", boundarySystemPrompt), userPrompt)
		if err != nil {
			return 0, OutcomeError, err
		}

		answer := strings.TrimSpace(resp)
		if answer == "" || strings.EqualFold(answer, "NOT_FOUND") {
			continue
		}
		rel, convErr := strconv.Atoi(answer)
		if convErr != nil || rel < 0 || rel >= len(window) {
			// Outside the current chunk or not a number: inconsistent answer.
			return 0, OutcomeError, oracle.NewError(oracle.KindMalformed, fmt.Errorf("bad boundary position %q", answer))
		}
		return lo + rel, OutcomeSuccess, nil
	}
	return 0, OutcomeNoMatch, nil
}

// regexStrategy is the deterministic safety net. Patterns cover the header
// conventions seen in real filings, in both plain-text and markup-bounded
// forms, most specific first.
type regexStrategy struct{}

func (s *regexStrategy) Name() string { return "regex" }

var (
	patternMu           sync.Mutex
	sectionPatternCache = map[string][]*regexp.Regexp{}
)

func sectionPatterns(def SectionDef) []*regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	if pats, ok := sectionPatternCache[def.ID]; ok {
		return pats
	}

	var raw []string
	if def.ID == "signatures" {
		raw = []string{
			`(?i)(?:^|\n)\s*SIGNATURES\s*(?:\n|$)`,
			`(?i)<[^>]*>\s*SIGNATURES\b`,
		}
	} else {
		token := regexp.QuoteMeta(itemToken(def.ID))
		raw = []string{
			// "ITEM 7. MANAGEMENT'S DISCUSSION..." and "Item 7A. ..."
			`(?i)(?:^|\n)\s*item\s+` + token + `[^0-9a-z]`,
			// HTML-encoded "<b>Item 7.</b>"
			`(?i)<[^>]*>\s*item\s+` + token + `[^0-9a-z]`,
		}
		// Title form, e.g. "\nRisk Factors\n".
		if def.Title != "" && def.ID != "item_6" {
			raw = append(raw, `(?i)(?:^|\n)\s*`+regexp.QuoteMeta(def.Title)+`\s*\n`)
		}
	}

	pats := make([]*regexp.Regexp, 0, len(raw))
	for _, r := range raw {
		pats = append(pats, regexp.MustCompile(r))
	}
	sectionPatternCache[def.ID] = pats
	return pats
}

func (s *regexStrategy) FindStart(_ context.Context, text string, searchFrom int, def SectionDef) (int, Outcome, error) {
	if searchFrom >= len(text) {
		return 0, OutcomeNoMatch, nil
	}
	remaining := text[searchFrom:]

	for _, pat := range sectionPatterns(def) {
		loc := pat.FindStringIndex(remaining)
		if loc == nil {
			continue
		}
		start := searchFrom + loc[0]
		// Skip the leading newline the pattern anchors on.
		for start < len(text) && (text[start] == '\n' || text[start] == ' ') {
			start++
		}
		return start, OutcomeSuccess, nil
	}
	return 0, OutcomeNoMatch, nil
}
