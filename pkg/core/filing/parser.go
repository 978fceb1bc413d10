package filing

import (
	"context"

	"github.com/rs/zerolog"

	"filinglens/pkg/core/oracle"
)

// ParserConfig collects the tunables for one parser instance.
type ParserConfig struct {
	Detector         DetectorConfig
	MaxTablesPerItem int
}

// DefaultParserConfig returns the tuning used against real filings.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Detector:         DefaultDetectorConfig(),
		MaxTablesPerItem: DefaultMaxTablesPerSection,
	}
}

// Parser runs the full document pipeline: HTML extraction, preprocessing,
// boundary detection and per-section table extraction, producing a
// FilingTree. One parser may serve concurrent requests; it holds no
// per-request state.
type Parser struct {
	schema    *Schema
	extractor *HTMLExtractor
	pre       *Preprocessor
	detector  *Detector
	cfg       ParserConfig
	log       zerolog.Logger
}

// NewParser wires a parser over the given oracle client. A nil client is
// valid and yields a purely deterministic parser.
func NewParser(client *oracle.Client, cfg ParserConfig, log zerolog.Logger) *Parser {
	if cfg.MaxTablesPerItem <= 0 {
		cfg.MaxTablesPerItem = DefaultMaxTablesPerSection
	}
	schema := Form10K()
	return &Parser{
		schema:    schema,
		extractor: NewHTMLExtractor(),
		pre:       NewPreprocessor(),
		detector:  NewDetector(schema, client, cfg.Detector, log),
		cfg:       cfg,
		log:       log,
	}
}

// Schema exposes the canonical structure the parser segments against.
func (p *Parser) Schema() *Schema { return p.schema }

// Parse turns one raw filing into a navigable section tree. Errors surface
// only for unreadable input; everything past extraction degrades instead of
// failing, so a valid (possibly sparse) tree always comes back.
func (p *Parser) Parse(ctx context.Context, raw RawDocument) (*FilingTree, error) {
	text, err := p.extractor.ExtractText(raw.Text)
	if err != nil {
		return nil, err
	}

	stream := p.pre.Clean(RawDocument{Source: raw.Source, Text: text})
	if stream.UsedPositionalFallback {
		p.log.Warn().Str("source", raw.Source).Msg((&MalformedDocumentError{Source: raw.Source}).Error())
	}
	p.log.Info().
		Str("source", raw.Source).
		Int("raw_chars", len(text)).
		Int("cleaned_chars", len(stream.Text)).
		Int("elisions", len(stream.Elisions)).
		Msg("preprocessing complete")

	boundaries, missing := p.detector.Segment(ctx, stream)

	sections := make([]*FilingSection, 0, len(boundaries))
	for _, b := range boundaries {
		def, _ := p.schema.Section(b.SectionID)
		content := stream.Text[b.Start:b.End]
		sections = append(sections, &FilingSection{
			SectionID: b.SectionID,
			Path:      p.schema.HumanPath(b.SectionID),
			Title:     def.Title,
			Purpose:   def.Purpose,
			Content:   content,
			Visuals:   ExtractVisuals(b.SectionID, content, p.cfg.MaxTablesPerItem),
		})
	}

	p.log.Info().
		Str("source", raw.Source).
		Int("sections", len(sections)).
		Int("missing", len(missing)).
		Msg("segmentation complete")

	return NewFilingTree(raw.Source, p.schema, sections, missing), nil
}
