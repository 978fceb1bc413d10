// Package filing turns raw annual-report filings into a navigable,
// section-addressable document tree. Parsing is hybrid: an LLM locates
// section boundaries where it can, and deterministic pattern rules take
// over whenever it cannot.
package filing

import "fmt"

// RawDocument is the immutable ingestion input.
type RawDocument struct {
	Source string // origin URL or path
	Text   string
}

// Len returns the declared total length in characters.
func (d RawDocument) Len() int { return len(d.Text) }

// ElisionReason records why a span was removed during preprocessing.
type ElisionReason string

const (
	ReasonMetadata    ElisionReason = "metadata_block"
	ReasonTOC         ElisionReason = "table_of_contents"
	ReasonBoilerplate ElisionReason = "boilerplate"
)

// Elision is one removed span, in raw-document offsets.
type Elision struct {
	Start  int
	End    int
	Reason ElisionReason
}

// OffsetSegment maps a contiguous run of cleaned text back to its raw origin.
type OffsetSegment struct {
	CleanStart int
	RawStart   int
	Length     int
}

// CleanedStream is the preprocessed character stream plus the bookkeeping
// needed to map any cleaned offset back to the raw document.
type CleanedStream struct {
	Source   string
	Text     string
	Elisions []Elision
	Segments []OffsetSegment // strictly increasing in CleanStart, covers Text

	// UsedPositionalFallback is set when no narrative indicator fired and the
	// fixed-offset heuristic chose the narrative start.
	UsedPositionalFallback bool
}

// RawOffset maps a cleaned-stream offset back to the raw document.
// Returns -1 for offsets outside the stream.
func (s *CleanedStream) RawOffset(cleanPos int) int {
	if cleanPos < 0 || cleanPos > len(s.Text) {
		return -1
	}
	for i := len(s.Segments) - 1; i >= 0; i-- {
		seg := s.Segments[i]
		if cleanPos >= seg.CleanStart {
			off := cleanPos - seg.CleanStart
			if off > seg.Length {
				off = seg.Length
			}
			return seg.RawStart + off
		}
	}
	return -1
}

// SectionBoundary delimits one canonical section within a CleanedStream.
// Boundaries are non-overlapping and ordered by canonical sequence.
type SectionBoundary struct {
	SectionID string
	Start     int
	End       int
}

// VisualElement is a compact description of one substantive table found in a
// section. Created during extraction and never mutated.
type VisualElement struct {
	Start           int      `json:"start"`
	End             int      `json:"end"`
	RowCount        int      `json:"row_count"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Description     string   `json:"description"`
}

// FilingSection is one addressable section of the parsed tree.
type FilingSection struct {
	SectionID string          `json:"section_id"`
	Path      string          `json:"path"` // human path, e.g. "Part2.Item7"
	Title     string          `json:"title"`
	Purpose   string          `json:"purpose,omitempty"`
	Content   string          `json:"content"`
	Visuals   []VisualElement `json:"visual_elements,omitempty"`
}

// BoundaryNotFoundError records a canonical section absent from a document.
// Segmentation continues past it; this is never fatal.
type BoundaryNotFoundError struct {
	SectionID string
}

func (e *BoundaryNotFoundError) Error() string {
	return fmt.Sprintf("section %s not found in document", e.SectionID)
}

// MalformedDocumentError means the preprocessor found no narrative region and
// degraded to the fixed-offset heuristic. Informational, never fatal.
type MalformedDocumentError struct {
	Source string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("no narrative region detected in %s, used positional fallback", e.Source)
}
