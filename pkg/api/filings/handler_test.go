package filings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/facts"
	"filinglens/pkg/core/filing"
	"filinglens/pkg/core/pipeline"
)

const testFilingText = `
Item 1. Business

The company underwrites personal automobile insurance through independent
agents and direct channels across the United States.

Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations

The combined ratio improved to 94.5 on favorable reserve development and
higher net premiums earned across personal lines.

SIGNATURES

Pursuant to the requirements of the Securities Exchange Act.
`

type stubSource struct{}

func (stubSource) LookupCIK(_ context.Context, ticker string) (string, error) {
	return "0000080661", nil
}

func (stubSource) LatestFiling(_ context.Context, cik, form string) (*edgar.FilingMetadata, error) {
	return &edgar.FilingMetadata{
		CIK:             cik,
		CompanyName:     "Test Insurer Corp",
		AccessionNumber: "0000080661-24-000060",
		Form:            form,
		FilingDate:      "2024-02-26",
	}, nil
}

func (stubSource) FetchFiling(_ context.Context, meta *edgar.FilingMetadata) (filing.RawDocument, error) {
	return filing.RawDocument{Source: "test://filing", Text: testFilingText}, nil
}

func (stubSource) CompanyFacts(_ context.Context, cik string) (facts.Dataset, error) {
	return facts.Dataset{
		CIK:        80661,
		EntityName: "Test Insurer Corp",
		Facts: map[string]map[string]facts.Concept{
			"us-gaap": {
				"Revenues": {
					Label: "Revenues",
					Units: map[string][]facts.Fact{
						"USD": {{Start: "2025-01-01", End: "2025-12-31", Value: 6.2e10, Year: 2025}},
					},
				},
			},
		},
	}, nil
}

func testServer() *Server {
	log := zerolog.Nop()
	parser := filing.NewParser(nil, filing.DefaultParserConfig(), log)
	filter := facts.NewFilter(nil, facts.Config{SizeThresholdBytes: 1}, nil, log)
	orch := pipeline.NewOrchestrator(stubSource{}, parser, filter, nil, log)
	return NewServer(orch, log)
}

func doRequest(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTreeEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/filings/PGR/tree", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Filing struct {
			CompanyName string `json:"company_name"`
		} `json:"filing"`
		Sections []struct {
			SectionID string `json:"section_id"`
			Path      string `json:"path"`
		} `json:"sections"`
		Missing []string `json:"missing_sections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Filing.CompanyName != "Test Insurer Corp" {
		t.Errorf("company = %q", resp.Filing.CompanyName)
	}
	if len(resp.Sections) != 3 {
		t.Fatalf("got %d sections: %+v", len(resp.Sections), resp.Sections)
	}
	if resp.Sections[1].Path != "Part2.Item7" {
		t.Errorf("second path = %q", resp.Sections[1].Path)
	}
	if len(resp.Missing) == 0 {
		t.Error("missing sections should be reported")
	}
}

func TestSectionEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/filings/80661/sections/Part2.Item7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Content, "combined ratio") {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.FullContentLength != len(resp.Content) {
		t.Errorf("short section should not be truncated")
	}
}

func TestSectionHTMLFormat(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/filings/80661/sections/Part2.Item7?format=html", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "combined ratio") {
		t.Errorf("rendered HTML missing expected elements: %q", body)
	}
}

func TestSectionNotFound(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/filings/80661/sections/Part9.Item99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/filings/80661/search?keywords=combined+ratio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Matches []searchMatch `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].SectionID != "item_7" {
		t.Fatalf("matches = %+v", resp.Matches)
	}
	if !strings.Contains(strings.ToLower(resp.Matches[0].Excerpt), "combined ratio") {
		t.Errorf("excerpt = %q", resp.Matches[0].Excerpt)
	}
}

func TestSearchRequiresKeywords(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/filings/80661/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCompanyDataEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/companies/80661/data", `{"question": "How has revenue grown?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp facts.FilteredDataset
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.FilterApplied {
		t.Error("oversized dataset should have been filtered")
	}
	if _, ok := resp.Dataset.Facts["us-gaap"]["Revenues"]; !ok {
		t.Errorf("Revenues missing: %+v", resp.Dataset.Facts)
	}
}

func TestCompanyDataValidation(t *testing.T) {
	if rec := doRequest(t, http.MethodPost, "/api/companies/80661/data", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
	if rec := doRequest(t, http.MethodPost, "/api/companies/80661/data", `{"question": "  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("blank question: status = %d, want 400", rec.Code)
	}
}
