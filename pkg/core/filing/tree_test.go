package filing

import (
	"errors"
	"testing"
)

func buildTestTree() *FilingTree {
	schema := Form10K()
	sections := []*FilingSection{
		{SectionID: "item_1", Path: "Part1.Item1", Title: "Business", Content: "The company operates insurance segments."},
		{SectionID: "item_1a", Path: "Part1.Item1A", Title: "Risk Factors", Content: "Catastrophe losses may exceed reserves."},
		{SectionID: "item_7", Path: "Part2.Item7", Title: "Management's Discussion and Analysis", Content: "The combined ratio improved to 92.1."},
	}
	return NewFilingTree("test", schema, sections, []string{"item_2"})
}

func TestGetSectionByPath(t *testing.T) {
	tree := buildTestTree()

	tests := []struct {
		path   string
		wantID string
	}{
		{"item_7", "item_7"},
		{"Part2.Item7", "item_7"},
		{"part2.item7", "item_7"},
		{"PartII.Item7", "item_7"},
		{"Item 7", "item_7"},
		{"item1a", "item_1a"},
		{"Part1.Item1A", "item_1a"},
		{"ITEM_1A", "item_1a"},
	}
	for _, tt := range tests {
		sec, err := tree.GetSectionByPath(tt.path)
		if err != nil {
			t.Errorf("GetSectionByPath(%q) error = %v", tt.path, err)
			continue
		}
		if sec.SectionID != tt.wantID {
			t.Errorf("GetSectionByPath(%q) = %s, want %s", tt.path, sec.SectionID, tt.wantID)
		}
	}
}

func TestGetSectionByPathNotFound(t *testing.T) {
	tree := buildTestTree()

	_, err := tree.GetSectionByPath("Part3.Item11")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("error type = %T, want *NotFoundError", err)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Part2.Item7", "item_7"},
		{"Item1A", "item_1a"},
		{"item 7a", "item_7a"},
		{"PartII", "part_2"},
		{"part1", "part_1"},
		{"Signatures", "signatures"},
		{"item_9c", "item_9c"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindSectionsByKeywords(t *testing.T) {
	tree := buildTestTree()

	hits := tree.FindSectionsByKeywords([]string{"combined ratio"})
	if len(hits) != 1 || hits[0].SectionID != "item_7" {
		t.Errorf("keyword search = %+v, want item_7 only", hits)
	}

	hits = tree.FindSectionsByKeywords([]string{"catastrophe", "insurance"})
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2", len(hits))
	}

	if hits := tree.FindSectionsByKeywords([]string{"nonexistent term"}); len(hits) != 0 {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestHumanPath(t *testing.T) {
	schema := Form10K()
	tests := []struct {
		id   string
		want string
	}{
		{"item_1", "Part1.Item1"},
		{"item_7a", "Part2.Item7A"},
		{"item_14", "Part3.Item14"},
		{"signatures", "Signatures"},
	}
	for _, tt := range tests {
		if got := schema.HumanPath(tt.id); got != tt.want {
			t.Errorf("HumanPath(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
