package store

import (
	"context"
	"testing"

	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/filing"
)

func sampleTree() *filing.FilingTree {
	sections := []*filing.FilingSection{
		{SectionID: "item_1", Path: "Part1.Item1", Title: "Business", Content: "The company underwrites personal auto insurance."},
		{SectionID: "item_7", Path: "Part2.Item7", Title: "Management's Discussion and Analysis of Financial Condition and Results of Operations", Content: "Net premiums written grew 18%."},
	}
	return filing.NewFilingTree("test://filing", filing.Form10K(), sections, []string{"item_2"})
}

func TestTreeCacheFileRoundTrip(t *testing.T) {
	cache := NewTreeCache(nil, t.TempDir())
	meta := &edgar.FilingMetadata{
		CIK:             "0000080661",
		CompanyName:     "Test Insurer Corp",
		AccessionNumber: "0000080661-24-000060",
		Form:            "10-K",
		FilingDate:      "2024-02-26",
	}
	ctx := context.Background()

	if cache.Has(ctx, meta.AccessionNumber) {
		t.Fatal("cache should start empty")
	}
	if tree, err := cache.Get(ctx, meta.AccessionNumber); err != nil || tree != nil {
		t.Fatalf("miss should be (nil, nil), got (%v, %v)", tree, err)
	}

	if err := cache.Save(ctx, meta, sampleTree()); err != nil {
		t.Fatal(err)
	}
	if !cache.Has(ctx, meta.AccessionNumber) {
		t.Error("Has = false after Save")
	}

	tree, err := cache.Get(ctx, meta.AccessionNumber)
	if err != nil {
		t.Fatal(err)
	}
	if tree == nil {
		t.Fatal("Get returned nil after Save")
	}
	if len(tree.Sections) != 2 {
		t.Fatalf("restored %d sections, want 2", len(tree.Sections))
	}

	// Path lookup must survive the round trip.
	sec, err := tree.GetSectionByPath("Part2.Item7")
	if err != nil {
		t.Fatal(err)
	}
	if sec.Content != "Net premiums written grew 18%." {
		t.Errorf("restored content = %q", sec.Content)
	}
	if len(tree.Missing) != 1 || tree.Missing[0] != "item_2" {
		t.Errorf("Missing = %v", tree.Missing)
	}
}

func TestTreeCacheOverwrite(t *testing.T) {
	cache := NewTreeCache(nil, t.TempDir())
	meta := &edgar.FilingMetadata{AccessionNumber: "0000080661-24-000060"}
	ctx := context.Background()

	if err := cache.Save(ctx, meta, sampleTree()); err != nil {
		t.Fatal(err)
	}

	updated := filing.NewFilingTree("test://filing-v2", filing.Form10K(),
		[]*filing.FilingSection{{SectionID: "item_1", Path: "Part1.Item1", Title: "Business", Content: "Revised."}}, nil)
	if err := cache.Save(ctx, meta, updated); err != nil {
		t.Fatal(err)
	}

	tree, err := cache.Get(ctx, meta.AccessionNumber)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Source != "test://filing-v2" || len(tree.Sections) != 1 {
		t.Errorf("overwrite not applied: source %q, %d sections", tree.Source, len(tree.Sections))
	}
}
