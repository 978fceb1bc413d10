package filing

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const filingHTML = `<html><head><title>FORM 10-K</title></head><body>
<div style="display:none">hidden inline tags</div>
<h2>Item 1. Business</h2>
<p>The company operates property and casualty insurance segments worldwide with substantial scale.</p>
<h2>Item 1A. Risk Factors</h2>
<p>Catastrophe losses may exceed recorded reserves in any given year.</p>
<h2>Item 7. Management's Discussion and Analysis</h2>
<p>The combined ratio improved to 92.1 on favorable prior accident year development.</p>
<table>
<tr><td>Year Ended December 31</td><td>2024</td><td>2023</td></tr>
<tr><td>Earned premiums</td><td>$12,400 million</td><td>$11,800 million</td></tr>
<tr><td>Losses and loss adjustment expenses</td><td>7,900</td><td>7,700</td></tr>
<tr><td>Combined ratio</td><td>92.1</td><td>93.4</td></tr>
<tr><td>Net income</td><td>1,750</td><td>1,420</td></tr>
</table>
<h2>SIGNATURES</h2>
<p>Signed on behalf of the registrant.</p>
</body></html>`

func TestHTMLExtractText(t *testing.T) {
	e := NewHTMLExtractor()
	text, err := e.ExtractText(filingHTML)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}

	if strings.Contains(text, "hidden inline tags") {
		t.Error("hidden element survived extraction")
	}
	if !strings.Contains(text, "Item 1A. Risk Factors") {
		t.Error("header lost during extraction")
	}
	if !strings.Contains(text, "Earned premiums | $12,400 million | $11,800 million") {
		t.Errorf("table rows not flattened to pipe form:\n%s", text)
	}

	// Headers land on their own lines so boundary patterns can anchor.
	found := false
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "Item 7. Management's Discussion and Analysis" {
			found = true
		}
	}
	if !found {
		t.Errorf("item 7 header not on its own line:\n%s", text)
	}
}

func TestHTMLExtractTextPassThrough(t *testing.T) {
	e := NewHTMLExtractor()
	plain := "Item 1. Business\nNarrative text only.\n"
	got, err := e.ExtractText(plain)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != plain {
		t.Errorf("plain text modified: %q", got)
	}
}

func TestParserEndToEnd(t *testing.T) {
	p := NewParser(nil, DefaultParserConfig(), zerolog.Nop())
	tree, err := p.Parse(context.Background(), RawDocument{Source: "test-10k", Text: filingHTML})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantOrder := []string{"item_1", "item_1a", "item_7", "signatures"}
	got := tree.SectionIDs()
	if len(got) != len(wantOrder) {
		t.Fatalf("sections = %v, want %v", got, wantOrder)
	}
	for i := range wantOrder {
		if got[i] != wantOrder[i] {
			t.Fatalf("sections = %v, want %v", got, wantOrder)
		}
	}

	// item_2 is absent and recorded, never invented.
	absent := false
	for _, id := range tree.Missing {
		if id == "item_2" {
			absent = true
		}
	}
	if !absent {
		t.Error("item_2 not recorded as missing")
	}

	mda, err := tree.GetSectionByPath("Part2.Item7")
	if err != nil {
		t.Fatalf("GetSectionByPath() error = %v", err)
	}
	if !strings.Contains(mda.Content, "combined ratio") && !strings.Contains(mda.Content, "Combined ratio") {
		t.Error("MD&A content missing its narrative")
	}
	if len(mda.Visuals) != 1 {
		t.Fatalf("MD&A visuals = %d, want 1", len(mda.Visuals))
	}
	if mda.Visuals[0].RowCount != 5 {
		t.Errorf("table row count = %d, want 5", mda.Visuals[0].RowCount)
	}
}
