package filing

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultMaxTablesPerSection caps how many tables are attached to a section.
const DefaultMaxTablesPerSection = 3

// minTableRows is the layout-noise threshold: anything shorter is a layout
// artifact, not data.
const minTableRows = 3

// minKeywordMatches is the relevance threshold per candidate table.
const minKeywordMatches = 2

// Financial indicators any substantive table is expected to contain.
var financialKeywords = []string{
	"million", "billion", "thousand", "$", "percent", "%",
	"revenue", "income", "loss", "assets", "liabilities",
	"ratio", "premium", "claim", "underwriting", "investment",
	"year ended", "december", "quarter", "fiscal",
}

// Per-section keyword lists. Sections without an entry accept any table that
// passes the financial-substance check.
var sectionTableKeywords = map[string][]string{
	"item_1":  {"business", "operation", "product", "service", "coverage"},
	"item_1a": {"risk", "factor", "exposure", "impact"},
	"item_5":  {"share", "stock", "dividend", "repurchase", "market"},
	"item_7": {"year ended", "december", "million", "income", "revenue", "expense",
		"prior accident", "development", "catastrophe", "loss", "ratio", "premium"},
	"item_8": {"balance sheet", "statement", "cash flow", "equity"},
}

// Form-header and cover-page tables that keep showing up and never carry data.
var tableSkipPhrases = []string{
	"annual report pursuant",
	"securities exchange act",
	"check one",
	"commission file number",
}

// tableCandidate is a run of pipe-delimited rows found in section text.
type tableCandidate struct {
	start int // offset within section content
	end   int
	rows  []string
}

// ExtractVisuals scans section content for tabular blocks and returns compact
// descriptions of the substantive ones, at most maxTables per section. Pure
// function over the content; deterministic.
func ExtractVisuals(sectionID string, content string, maxTables int) []VisualElement {
	if maxTables <= 0 {
		maxTables = DefaultMaxTablesPerSection
	}

	type scored struct {
		cand     tableCandidate
		keywords []string
	}
	var kept []scored

	for _, cand := range findTableCandidates(content) {
		if len(cand.rows) < minTableRows {
			continue
		}
		text := strings.ToLower(strings.Join(cand.rows, "\n"))

		if containsAny(text, tableSkipPhrases) {
			continue
		}
		// The securities listing table appears in every section.
		if strings.Contains(text, "trading symbol") && strings.Contains(text, "new york stock exchange") {
			continue
		}
		if countMatches(text, financialKeywords) < minKeywordMatches {
			continue
		}

		keywords := matchedKeywords(text, sectionTableKeywords[sectionID])
		if _, hasList := sectionTableKeywords[sectionID]; hasList && len(keywords) < minKeywordMatches {
			continue
		}
		kept = append(kept, scored{cand: cand, keywords: keywords})
	}

	// Highest keyword score first; document order breaks ties.
	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i].keywords) > len(kept[j].keywords)
	})
	if len(kept) > maxTables {
		kept = kept[:maxTables]
	}
	// Present surviving tables in document order.
	sort.Slice(kept, func(i, j int) bool { return kept[i].cand.start < kept[j].cand.start })

	elements := make([]VisualElement, 0, len(kept))
	for _, s := range kept {
		elements = append(elements, VisualElement{
			Start:           s.cand.start,
			End:             s.cand.end,
			RowCount:        len(s.cand.rows),
			MatchedKeywords: s.keywords,
			Description:     describeTable(s.cand, s.keywords),
		})
	}
	return elements
}

// findTableCandidates locates maximal runs of consecutive lines that look
// like table rows (cells joined with " | ").
func findTableCandidates(content string) []tableCandidate {
	var candidates []tableCandidate
	var current *tableCandidate

	pos := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineStart := pos
		pos += len(line)
		trimmed := strings.TrimRight(line, "\n")

		if strings.Contains(trimmed, " | ") && strings.TrimSpace(trimmed) != "" {
			if current == nil {
				current = &tableCandidate{start: lineStart}
			}
			current.rows = append(current.rows, trimmed)
			current.end = lineStart + len(trimmed)
			continue
		}
		if current != nil {
			candidates = append(candidates, *current)
			current = nil
		}
	}
	if current != nil {
		candidates = append(candidates, *current)
	}
	return candidates
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func matchedKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// describeTable renders a one-line textual description instead of the raw
// table, for compact downstream consumption.
func describeTable(cand tableCandidate, keywords []string) string {
	header := strings.TrimSpace(cand.rows[0])
	if len(header) > 120 {
		header = header[:120] + "..."
	}
	if len(keywords) > 0 {
		return fmt.Sprintf("Table (%d rows, re: %s): %s", len(cand.rows), strings.Join(keywords, ", "), header)
	}
	return fmt.Sprintf("Table (%d rows): %s", len(cand.rows), header)
}
