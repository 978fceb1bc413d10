package filing

import "strings"

// SectionDef describes one item in the canonical Form 10-K schema.
type SectionDef struct {
	ID         string
	PartID     string
	Title      string
	Purpose    string
	KeyMetrics []string
}

// PartDef groups the items of one Part of the filing.
type PartDef struct {
	ID       string
	Title    string
	Sections []SectionDef
}

// Schema is the fixed document structure used for segmentation. Read-only
// reference data, injected at construction and never mutated at runtime.
type Schema struct {
	Parts []PartDef

	byID map[string]SectionDef
	seq  []string
}

// Form10K returns the canonical Form 10-K structure.
func Form10K() *Schema {
	s := &Schema{
		Parts: []PartDef{
			{
				ID:    "part_1",
				Title: "Part I - Business Information",
				Sections: []SectionDef{
					{ID: "item_1", Title: "Business", Purpose: "Company operations and strategy"},
					{ID: "item_1a", Title: "Risk Factors", Purpose: "Material risks"},
					{ID: "item_1b", Title: "Unresolved Staff Comments", Purpose: "SEC comments"},
					{ID: "item_1c", Title: "Cybersecurity", Purpose: "Cyber risk management"},
					{ID: "item_2", Title: "Properties", Purpose: "Physical assets"},
					{ID: "item_3", Title: "Legal Proceedings", Purpose: "Material litigation"},
					{ID: "item_4", Title: "Mine Safety Disclosures", Purpose: "Mining safety (if applicable)"},
				},
			},
			{
				ID:    "part_2",
				Title: "Part II - Financial Information",
				Sections: []SectionDef{
					{ID: "item_5", Title: "Market for Common Equity", Purpose: "Stock and shareholder info"},
					{ID: "item_6", Title: "Reserved", Purpose: "Reserved section"},
					{ID: "item_7", Title: "Management's Discussion and Analysis", Purpose: "Financial performance analysis",
						KeyMetrics: []string{"combined ratio", "underwriting", "revenue", "margins"}},
					{ID: "item_7a", Title: "Market Risk Disclosures", Purpose: "Market risk exposure"},
					{ID: "item_8", Title: "Financial Statements", Purpose: "Audited financials"},
					{ID: "item_9", Title: "Changes in Accountants", Purpose: "Auditor changes"},
					{ID: "item_9a", Title: "Controls and Procedures", Purpose: "Internal controls"},
					{ID: "item_9b", Title: "Other Information", Purpose: "Additional disclosures"},
					{ID: "item_9c", Title: "Foreign Jurisdiction Inspections", Purpose: "Audit inspection issues"},
				},
			},
			{
				ID:    "part_3",
				Title: "Part III - Corporate Governance",
				Sections: []SectionDef{
					{ID: "item_10", Title: "Directors and Officers", Purpose: "Leadership information"},
					{ID: "item_11", Title: "Executive Compensation", Purpose: "Pay disclosures"},
					{ID: "item_12", Title: "Security Ownership", Purpose: "Stock ownership"},
					{ID: "item_13", Title: "Related Transactions", Purpose: "Related party deals"},
					{ID: "item_14", Title: "Accountant Fees", Purpose: "Auditor compensation"},
				},
			},
			{
				ID:    "part_4",
				Title: "Part IV - Exhibits and Signatures",
				Sections: []SectionDef{
					{ID: "item_15", Title: "Exhibits and Schedules", Purpose: "Document index"},
					{ID: "item_16", Title: "Form 10-K Summary", Purpose: "Optional summary"},
				},
			},
			{
				ID:    "signatures",
				Title: "Signatures",
				Sections: []SectionDef{
					{ID: "signatures", Title: "Signatures", Purpose: "Required signatures"},
				},
			},
		},
	}

	s.byID = make(map[string]SectionDef)
	for _, part := range s.Parts {
		for _, sec := range part.Sections {
			sec.PartID = part.ID
			s.byID[sec.ID] = sec
			s.seq = append(s.seq, sec.ID)
		}
	}
	return s
}

// Sequence returns the canonical ordered list of section IDs.
func (s *Schema) Sequence() []string {
	out := make([]string, len(s.seq))
	copy(out, s.seq)
	return out
}

// Section looks up a section definition by ID.
func (s *Schema) Section(id string) (SectionDef, bool) {
	def, ok := s.byID[id]
	return def, ok
}

// Index returns the position of id in the canonical sequence, or -1.
func (s *Schema) Index(id string) int {
	for i, sid := range s.seq {
		if sid == id {
			return i
		}
	}
	return -1
}

// itemToken converts "item_7a" to "7a", "signatures" to "signatures".
func itemToken(sectionID string) string {
	if strings.HasPrefix(sectionID, "item_") {
		return strings.TrimPrefix(sectionID, "item_")
	}
	return sectionID
}

// HumanPath builds the display path for a section, e.g. "Part2.Item7A".
func (s *Schema) HumanPath(sectionID string) string {
	def, ok := s.byID[sectionID]
	if !ok {
		return sectionID
	}
	if def.ID == "signatures" {
		return "Signatures"
	}
	partNum := strings.TrimPrefix(def.PartID, "part_")
	item := strings.ToUpper(itemToken(def.ID))
	return "Part" + partNum + ".Item" + item
}
