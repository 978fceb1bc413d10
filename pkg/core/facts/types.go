// Package facts reduces oversized structured financial datasets to the
// minimum subset relevant to a question. The reduction is guided by an
// oracle when possible and by deterministic keyword rules when not; it never
// fails and never returns an empty result.
package facts

import "time"

// Fact is one reported value for a concept in one period.
type Fact struct {
	Start  string  `json:"start,omitempty"`
	End    string  `json:"end"`
	Value  float64 `json:"val"`
	Year   int     `json:"fy,omitempty"`
	Period string  `json:"fp,omitempty"`
	Form   string  `json:"form,omitempty"`
	Filed  string  `json:"filed,omitempty"`
	Frame  string  `json:"frame,omitempty"`
}

// Concept holds a concept's facts keyed by reporting unit (e.g. "USD").
type Concept struct {
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Units       map[string][]Fact `json:"units"`
}

// Dataset is the nested concept mapping this engine filters. It mirrors the
// company-facts layout: taxonomy -> concept name -> unit series. Read-only
// to this package.
type Dataset struct {
	CIK        int                           `json:"cik,omitempty"`
	EntityName string                        `json:"entityName,omitempty"`
	Facts      map[string]map[string]Concept `json:"facts"`
}

// ConceptCount totals the concepts across all taxonomies.
func (d Dataset) ConceptCount() int {
	n := 0
	for _, concepts := range d.Facts {
		n += len(concepts)
	}
	return n
}

// Guidance is the oracle's advisory output steering the filter. Produced
// once per request, consumed and discarded.
type Guidance struct {
	RelevantConcepts   []string `json:"relevant_concepts"`
	TimePeriods        []string `json:"time_periods"`
	CalculationsNeeded []string `json:"calculations_needed"`
	KeyDataPoints      []string `json:"key_data_points"`
	Reasoning          string   `json:"reasoning"`
}

// FilterType names which path produced a FilteredDataset.
type FilterType string

const (
	FilterNone    FilterType = "none"             // under threshold, returned unchanged
	FilterGuided  FilterType = "guided"           // oracle guidance applied
	FilterKeyword FilterType = "keyword_fallback" // deterministic keyword rules
	FilterSummary FilterType = "summary_fallback" // minimal names-and-values summary
)

// ConceptSummary is the minimal per-concept record used when both the guided
// and keyword paths yield nothing.
type ConceptSummary struct {
	AvailableUnits  []string `json:"available_units"`
	DataPointsCount int      `json:"data_points_count"`
	MostRecentEnd   string   `json:"most_recent_end,omitempty"`
	MostRecentValue float64  `json:"most_recent_value,omitempty"`
}

// FilteredDataset is the final output of the filtering pipeline: a Dataset
// restricted to relevant concepts and a bounded time window, plus metadata
// describing how the reduction happened.
type FilteredDataset struct {
	Dataset
	FilterApplied bool       `json:"filter_applied"`
	FilterType    FilterType `json:"filter_type"`
	KeywordsUsed  []string   `json:"keywords_used,omitempty"`
	Reasoning     string     `json:"reasoning,omitempty"`

	OriginalConceptCount int `json:"original_concepts_count"`
	FilteredConceptCount int `json:"filtered_concepts_count"`

	// Summary is populated only for FilterSummary results.
	Summary map[string]map[string]ConceptSummary `json:"facts_summary,omitempty"`
}

// windowCutoff returns the inclusive start of a last-N-years window.
func windowCutoff(now time.Time, years int) string {
	return now.AddDate(-years, 0, 0).Format("2006-01-02")
}
