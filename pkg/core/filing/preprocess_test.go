package filing

import (
	"reflect"
	"strings"
	"testing"
)

const sampleRawFiling = `context id=c-1 entity identifier 0000874766
xbrl taxonomy us-gaap namespace declarations
schema reference us-gaap-2024.xsd
TABLE OF CONTENTS
BUSINESS 6
RISK FACTORS 21
PROPERTIES 58
Item 1. Business - The company operates property and casualty insurance segments worldwide.
The company underwrites commercial and personal lines.
Item 1A. Risk Factors
Catastrophe losses may exceed reserves in any given year.
`

func TestCleanStripsMetadataAndTOC(t *testing.T) {
	p := NewPreprocessor()
	stream := p.Clean(RawDocument{Source: "test", Text: sampleRawFiling})

	if strings.Contains(stream.Text, "taxonomy") {
		t.Error("cleaned text still contains metadata block")
	}
	if strings.Contains(stream.Text, "RISK FACTORS 21") {
		t.Error("cleaned text still contains TOC entries")
	}
	if !strings.Contains(stream.Text, "Item 1. Business") {
		t.Error("cleaned text lost the narrative start")
	}
	if !strings.Contains(stream.Text, "Catastrophe losses") {
		t.Error("cleaned text lost narrative content")
	}
	if stream.UsedPositionalFallback {
		t.Error("narrative indicator present but positional fallback used")
	}
	if len(stream.Elisions) == 0 {
		t.Error("no elisions recorded despite removed content")
	}

	reasons := map[ElisionReason]bool{}
	for _, e := range stream.Elisions {
		reasons[e.Reason] = true
	}
	if !reasons[ReasonMetadata] {
		t.Error("no metadata elision recorded")
	}
	if !reasons[ReasonTOC] {
		t.Error("no TOC elision recorded")
	}
}

func TestCleanIdempotent(t *testing.T) {
	p := NewPreprocessor()
	raw := RawDocument{Source: "test", Text: sampleRawFiling}

	first := p.Clean(raw)
	second := p.Clean(raw)

	if first.Text != second.Text {
		t.Error("two runs produced different cleaned text")
	}
	if !reflect.DeepEqual(first.Elisions, second.Elisions) {
		t.Error("two runs produced different elision records")
	}
	if !reflect.DeepEqual(first.Segments, second.Segments) {
		t.Error("two runs produced different offset maps")
	}
}

func TestCleanOffsetMap(t *testing.T) {
	p := NewPreprocessor()
	raw := RawDocument{Source: "test", Text: sampleRawFiling}
	stream := p.Clean(raw)

	// Offset map is strictly increasing and covers the full cleaned buffer.
	covered := 0
	prevClean := -1
	for _, seg := range stream.Segments {
		if seg.CleanStart <= prevClean {
			t.Fatalf("segment CleanStart %d not increasing past %d", seg.CleanStart, prevClean)
		}
		if seg.CleanStart != covered {
			t.Fatalf("gap in offset map at clean offset %d", covered)
		}
		if got, want := stream.Text[seg.CleanStart:seg.CleanStart+seg.Length], raw.Text[seg.RawStart:seg.RawStart+seg.Length]; got != want {
			t.Fatalf("segment content mismatch: %q != %q", got, want)
		}
		prevClean = seg.CleanStart
		covered += seg.Length
	}
	if covered != len(stream.Text) {
		t.Errorf("offset map covers %d of %d cleaned chars", covered, len(stream.Text))
	}

	// RawOffset round-trips into the raw document.
	idx := strings.Index(stream.Text, "Catastrophe")
	if idx < 0 {
		t.Fatal("marker not found in cleaned text")
	}
	rawIdx := stream.RawOffset(idx)
	if !strings.HasPrefix(raw.Text[rawIdx:], "Catastrophe") {
		t.Errorf("RawOffset(%d) = %d does not point at the marker", idx, rawIdx)
	}
}

func TestCleanPositionalFallback(t *testing.T) {
	// A document with no narrative indicators at all.
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("0 1 2 3 4 5 6 7 8 9\n")
	}
	sb.WriteString("the company financial operations discussion continues with substantial detail here\n")
	for i := 0; i < 30; i++ {
		sb.WriteString("more trailing content about operations\n")
	}

	p := NewPreprocessor()
	stream := p.Clean(RawDocument{Source: "test", Text: sb.String()})

	if !stream.UsedPositionalFallback {
		t.Error("expected positional fallback for indicator-free document")
	}
	if len(stream.Text) == 0 {
		t.Error("fallback produced empty stream")
	}
}

func TestCleanNeverReturnsEmpty(t *testing.T) {
	// Pure metadata: everything would be elided; input must pass through.
	raw := RawDocument{Source: "test", Text: "xbrl taxonomy only\ncontext id=1\n"}
	p := NewPreprocessor()
	stream := p.Clean(raw)

	if len(raw.Text) > 0 && len(stream.Text) == 0 {
		t.Error("preprocessor returned empty stream for non-empty input")
	}
}
