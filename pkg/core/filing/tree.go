package filing

import (
	"fmt"
	"regexp"
	"strings"
)

// FilingTree is the navigable result of parsing one document. Immutable once
// constructed; safe for concurrent readers.
type FilingTree struct {
	Source   string
	Schema   *Schema
	Sections []*FilingSection // canonical order, absent sections omitted
	Missing  []string         // canonical IDs not found in this document

	byID map[string]*FilingSection
}

// NewFilingTree assembles a tree from segmentation output. Each boundary
// becomes one section with its visual elements already attached.
func NewFilingTree(source string, schema *Schema, sections []*FilingSection, missing []string) *FilingTree {
	t := &FilingTree{
		Source:   source,
		Schema:   schema,
		Sections: sections,
		Missing:  missing,
		byID:     make(map[string]*FilingSection, len(sections)),
	}
	for _, sec := range sections {
		t.byID[sec.SectionID] = sec
	}
	return t
}

// NotFoundError reports a path that matched no section.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no section found for path %q", e.Path)
}

// GetSectionByPath resolves a human path like "Part2.Item7" to its section.
// Exact ID and display-path forms are tried first, then a normalized
// case/whitespace form before giving up.
func (t *FilingTree) GetSectionByPath(path string) (*FilingSection, error) {
	if sec, ok := t.byID[path]; ok {
		return sec, nil
	}
	for _, sec := range t.Sections {
		if sec.Path == path {
			return sec, nil
		}
	}

	normalized := NormalizePath(path)
	if sec, ok := t.byID[normalized]; ok {
		return sec, nil
	}
	for _, sec := range t.Sections {
		if strings.EqualFold(sec.Path, path) || NormalizePath(sec.Path) == normalized {
			return sec, nil
		}
	}

	return nil, &NotFoundError{Path: path}
}

var pathItemRe = regexp.MustCompile(`item[\s_]*(\d+[a-z]?)`)
var pathPartRe = regexp.MustCompile(`part[\s_]*(?:([1-4])|(i{1,3}v?))`)

// NormalizePath maps user-friendly paths to internal section IDs:
// "Part2.Item7A", "item 7a", "PartII.Item7" all become "item_7a" (the part
// component is redundant given unique item numbering and is dropped).
func NormalizePath(path string) string {
	p := strings.ToLower(strings.TrimSpace(path))
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")

	if strings.Contains(p, "signature") {
		return "signatures"
	}
	if m := pathItemRe.FindStringSubmatch(p); m != nil {
		return "item_" + m[1]
	}
	if m := pathPartRe.FindStringSubmatch(p); m != nil {
		if m[1] != "" {
			return "part_" + m[1]
		}
		return "part_" + romanToDigit(m[2])
	}
	return p
}

func romanToDigit(roman string) string {
	switch roman {
	case "i":
		return "1"
	case "ii":
		return "2"
	case "iii":
		return "3"
	case "iv":
		return "4"
	}
	return roman
}

// FindSectionsByKeywords returns every section whose content contains at
// least one of the given keywords, in canonical order.
func (t *FilingTree) FindSectionsByKeywords(keywords []string) []*FilingSection {
	var results []*FilingSection
	for _, sec := range t.Sections {
		content := strings.ToLower(sec.Content)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(kw)) {
				results = append(results, sec)
				break
			}
		}
	}
	return results
}

// SectionIDs lists the IDs present in this tree, in canonical order.
func (t *FilingTree) SectionIDs() []string {
	ids := make([]string, 0, len(t.Sections))
	for _, sec := range t.Sections {
		ids = append(ids, sec.SectionID)
	}
	return ids
}

// TreeState is the serializable form of a FilingTree. The schema is not
// persisted; restoration reattaches the canonical 10-K schema.
type TreeState struct {
	Source   string           `json:"source"`
	Sections []*FilingSection `json:"sections"`
	Missing  []string         `json:"missing,omitempty"`
}

// State captures the tree for persistence.
func (t *FilingTree) State() *TreeState {
	return &TreeState{Source: t.Source, Sections: t.Sections, Missing: t.Missing}
}

// RestoreTree rebuilds a navigable tree from persisted state.
func RestoreTree(state *TreeState) *FilingTree {
	return NewFilingTree(state.Source, Form10K(), state.Sections, state.Missing)
}
