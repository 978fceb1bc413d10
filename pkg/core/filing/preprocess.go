package filing

import "strings"

// Indicator phrases for embedded machine-tag metadata blocks.
var metadataIndicators = []string{
	"context id=", "xbrl", "taxonomy", "namespace", "schema", "entity identifier",
}

// Phrases that pull the scanner out of a metadata block.
var metadataExitIndicators = []string{
	"part i", "item 1", "business", "table of contents",
}

var tocIndicators = []string{
	"table of contents", "index", "part i", "part ii", "part iii",
}

// Phrases that mark the start of genuine narrative content.
var narrativeIndicators = []string{
	"forward-looking statements",
	"item 1. business",
	"item 1.",
	"part i - item 1",
	"underwriting for",
	"the company operates",
}

// Words expected in the first substantial narrative line when falling back to
// the positional heuristic.
var narrativeFallbackWords = []string{
	"company", "business", "operations", "insurance", "financial",
}

// Preprocessor strips metadata blocks, table-of-contents regions and leading
// boilerplate from a raw filing. It never fails; the worst case is the input
// passed through unchanged with zero removals recorded.
type Preprocessor struct{}

// NewPreprocessor returns a preprocessor with default heuristics.
func NewPreprocessor() *Preprocessor { return &Preprocessor{} }

type rawLine struct {
	text  string
	start int // raw offset of first character
}

type lineVerdict struct {
	keep   bool
	reason ElisionReason
}

// Clean produces the cleaned stream for raw. Deterministic: the same input
// always yields the same output.
func (p *Preprocessor) Clean(raw RawDocument) *CleanedStream {
	lines := splitLines(raw.Text)
	verdicts, narrativeFound := p.classify(lines)

	if !narrativeFound {
		start := p.findNarrativeFallback(raw.Text, lines)
		for i := range verdicts {
			if i < start {
				if !verdicts[i].keep {
					continue // keep the more specific reason already assigned
				}
				verdicts[i] = lineVerdict{keep: false, reason: ReasonBoilerplate}
			} else {
				verdicts[i] = lineVerdict{keep: true}
			}
		}
	}

	stream := assemble(raw, lines, verdicts)
	stream.UsedPositionalFallback = !narrativeFound

	// Degenerate case: everything was elided. Return the input unchanged.
	if len(stream.Text) == 0 && len(raw.Text) > 0 {
		return &CleanedStream{
			Source:   raw.Source,
			Text:     raw.Text,
			Segments: []OffsetSegment{{CleanStart: 0, RawStart: 0, Length: len(raw.Text)}},
		}
	}
	return stream
}

// classify runs the line-by-line state machine over the document. Returns a
// verdict per line and whether a narrative start was confidently detected.
func (p *Preprocessor) classify(lines []rawLine) ([]lineVerdict, bool) {
	verdicts := make([]lineVerdict, len(lines))

	inMetadata := false
	inTOC := false
	narrativeFound := false

	for i, ln := range lines {
		lower := strings.ToLower(strings.TrimSpace(ln.text))

		if narrativeFound {
			verdicts[i] = lineVerdict{keep: true}
			continue
		}

		if containsAny(lower, metadataIndicators) {
			inMetadata = true
			verdicts[i] = lineVerdict{keep: false, reason: ReasonMetadata}
			continue
		}
		if inMetadata && containsAny(lower, metadataExitIndicators) {
			inMetadata = false
		}
		if inMetadata {
			verdicts[i] = lineVerdict{keep: false, reason: ReasonMetadata}
			continue
		}

		if !inTOC && containsAny(lower, tocIndicators) {
			inTOC = true
			verdicts[i] = lineVerdict{keep: false, reason: ReasonTOC}
			continue
		}

		if inTOC {
			if containsAny(lower, narrativeIndicators) && len(strings.TrimSpace(ln.text)) > 20 {
				inTOC = false
				narrativeFound = true
				verdicts[i] = lineVerdict{keep: true}
				continue
			}
			// TOC entries look like "RISK FACTORS    21".
			verdicts[i] = lineVerdict{keep: false, reason: ReasonTOC}
			continue
		}

		if containsAny(lower, narrativeIndicators) && len(strings.TrimSpace(ln.text)) > 15 {
			narrativeFound = true
			verdicts[i] = lineVerdict{keep: true}
			continue
		}

		verdicts[i] = lineVerdict{keep: false, reason: ReasonBoilerplate}
	}

	return verdicts, narrativeFound
}

// findNarrativeFallback picks a start line when no narrative indicator fired.
// It first looks for a prose-dense window within the first 30% of the
// document, then falls back to a fixed position at 20% of total length.
func (p *Preprocessor) findNarrativeFallback(text string, lines []rawLine) int {
	if idx, ok := p.findProseDenseLine(text, lines); ok {
		return idx
	}

	// Fixed-position fallback: first substantial line after the 20% mark.
	start := len(lines) * 20 / 100
	limit := start + 1000
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := start; i < limit; i++ {
		ln := lines[i]
		if len(strings.TrimSpace(ln.text)) > 50 && containsAny(strings.ToLower(ln.text), narrativeFallbackWords) {
			return i
		}
	}
	return start
}

const (
	proseWindow       = 2048
	proseAlphaRatio   = 0.60
	proseMarkupRatio  = 0.02
	proseScanFraction = 30 // percent of the document scanned for a dense window
)

// findProseDenseLine scans for the first line whose following window of text
// is mostly alphabetic prose with negligible markup density.
func (p *Preprocessor) findProseDenseLine(text string, lines []rawLine) (int, bool) {
	scanEnd := len(text) * proseScanFraction / 100
	for i, ln := range lines {
		if ln.start > scanEnd {
			break
		}
		end := ln.start + proseWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[ln.start:end]
		if len(window) < proseWindow/2 {
			break
		}
		if proseDensity(window) >= proseAlphaRatio && markupDensity(window) <= proseMarkupRatio {
			return i, true
		}
	}
	return 0, false
}

func proseDensity(window string) float64 {
	alpha := 0
	for _, r := range window {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' {
			alpha++
		}
	}
	return float64(alpha) / float64(len(window))
}

func markupDensity(window string) float64 {
	tags := 0
	for _, r := range window {
		if r == '<' || r == '>' || r == '=' || r == '"' {
			tags++
		}
	}
	return float64(tags) / float64(len(window))
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func splitLines(text string) []rawLine {
	var lines []rawLine
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, rawLine{text: text[start:i], start: start})
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, rawLine{text: text[start:], start: start})
	}
	return lines
}

// assemble builds the cleaned text, its offset map and the elision record
// from per-line verdicts.
func assemble(raw RawDocument, lines []rawLine, verdicts []lineVerdict) *CleanedStream {
	var sb strings.Builder
	var segments []OffsetSegment
	var elisions []Elision

	cleanPos := 0
	for i, ln := range lines {
		lineEnd := ln.start + len(ln.text)
		if lineEnd < len(raw.Text) {
			lineEnd++ // include the trailing newline
		}

		if verdicts[i].keep {
			n := lineEnd - ln.start
			if len(segments) > 0 {
				last := &segments[len(segments)-1]
				if last.RawStart+last.Length == ln.start {
					last.Length += n
					sb.WriteString(raw.Text[ln.start:lineEnd])
					cleanPos += n
					continue
				}
			}
			segments = append(segments, OffsetSegment{CleanStart: cleanPos, RawStart: ln.start, Length: n})
			sb.WriteString(raw.Text[ln.start:lineEnd])
			cleanPos += n
			continue
		}

		if len(elisions) > 0 {
			last := &elisions[len(elisions)-1]
			if last.End == ln.start && last.Reason == verdicts[i].reason {
				last.End = lineEnd
				continue
			}
		}
		elisions = append(elisions, Elision{Start: ln.start, End: lineEnd, Reason: verdicts[i].reason})
	}

	return &CleanedStream{
		Source:   raw.Source,
		Text:     sb.String(),
		Elisions: elisions,
		Segments: segments,
	}
}
