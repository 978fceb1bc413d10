package filing

import (
	"strings"
	"testing"
)

const mdaTable = `Year Ended December 31 | 2024 | 2023
Earned premiums | $12,400 million | $11,800 million
Losses and loss adjustment expenses | 7,900 | 7,700
Combined ratio | 92.1 | 93.4
Net income | 1,750 | 1,420`

func TestExtractVisualsKeepsSubstantiveTable(t *testing.T) {
	content := "Discussion of results follows.\n" + mdaTable + "\nThe combined ratio improved year over year.\n"

	visuals := ExtractVisuals("item_7", content, 3)
	if len(visuals) != 1 {
		t.Fatalf("got %d visuals, want 1", len(visuals))
	}

	v := visuals[0]
	if v.RowCount != 5 {
		t.Errorf("RowCount = %d, want 5", v.RowCount)
	}
	if len(v.MatchedKeywords) < 3 {
		t.Errorf("matched keywords = %v, want at least 3", v.MatchedKeywords)
	}
	if v.Description == "" || strings.Contains(v.Description, "\n") {
		t.Errorf("description must be a single line, got %q", v.Description)
	}
	if !strings.Contains(content[v.Start:v.End], "Combined ratio") {
		t.Error("offset range does not cover the table")
	}
}

func TestExtractVisualsDiscardsTwoRowTable(t *testing.T) {
	content := "Intro.\nEarned premiums | $12,400 million\nCombined ratio | 92.1\nOutro.\n"

	if visuals := ExtractVisuals("item_7", content, 3); len(visuals) != 0 {
		t.Errorf("two-row table returned: %+v", visuals)
	}
}

func TestExtractVisualsDiscardsIrrelevantTable(t *testing.T) {
	// Enough rows and financial substance, but no item_1a keywords.
	content := `Overview.
Year Ended December 31 | 2024 | 2023
Revenue | $5,000 million | $4,800 million
Net income | 900 | 850
Dividends declared | 300 | 280
`
	if visuals := ExtractVisuals("item_1a", content, 3); len(visuals) != 0 {
		t.Errorf("table without section-relevant keywords returned: %+v", visuals)
	}
}

func TestExtractVisualsSkipsCoverPageTable(t *testing.T) {
	content := `Annual report pursuant to section 13 | Commission file number 001-13958
Title of each class | Trading symbol | Name of exchange
Common Stock | HIG | New York Stock Exchange
Revenue | $5,000 million | income
`
	if visuals := ExtractVisuals("item_7", content, 3); len(visuals) != 0 {
		t.Errorf("cover-page table returned: %+v", visuals)
	}
}

func TestExtractVisualsCapsAtMax(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString("Narrative text between tables.\n")
		sb.WriteString(mdaTable)
		sb.WriteString("\n")
	}

	visuals := ExtractVisuals("item_7", sb.String(), 3)
	if len(visuals) != 3 {
		t.Errorf("got %d visuals, want cap of 3", len(visuals))
	}

	// Survivors are reported in document order.
	for i := 1; i < len(visuals); i++ {
		if visuals[i].Start <= visuals[i-1].Start {
			t.Error("visuals not in document order")
		}
	}
}

func TestExtractVisualsPure(t *testing.T) {
	content := "Intro.\n" + mdaTable + "\n"
	first := ExtractVisuals("item_7", content, 3)
	second := ExtractVisuals("item_7", content, 3)

	if len(first) != len(second) {
		t.Fatal("repeated extraction differs")
	}
	for i := range first {
		if first[i].Description != second[i].Description || first[i].Start != second[i].Start {
			t.Error("repeated extraction differs")
		}
	}
}
