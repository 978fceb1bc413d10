// Package edgar fetches filings and XBRL company facts from SEC EDGAR.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"filinglens/pkg/core/facts"
	"filinglens/pkg/core/filing"
)

const (
	defaultUserAgent  = "filinglens research@filinglens.dev"
	submissionsURL    = "https://data.sec.gov/submissions/CIK%s.json"
	companyFactsURL   = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
	companyConceptURL = "https://data.sec.gov/api/xbrl/companyconcept/CIK%s/%s/%s.json"
	filingBaseURL     = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// FetchError reports a failed EDGAR request.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("edgar fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("edgar fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FilingMetadata identifies one filing on EDGAR.
type FilingMetadata struct {
	CIK             string   `json:"cik"`
	CompanyName     string   `json:"company_name"`
	Tickers         []string `json:"tickers,omitempty"`
	AccessionNumber string   `json:"accession_number"`
	FilingDate      string   `json:"filing_date"`
	Form            string   `json:"form"`
	PrimaryDocument string   `json:"primary_document"`
	FilingURL       string   `json:"filing_url"`
}

// Client talks to the EDGAR APIs. SEC requires a descriptive User-Agent on
// every request.
type Client struct {
	http      *http.Client
	userAgent string
	log       zerolog.Logger

	tickerMu    sync.Mutex
	tickerCache map[string]string // ticker -> padded CIK
}

// NewClient builds an EDGAR client. An empty userAgent gets the project
// default.
func NewClient(userAgent string, log zerolog.Logger) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: 60 * time.Second},
		userAgent: userAgent,
		log:       log,
	}
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// PadCIK normalizes a CIK to the 10 digit, zero padded form the APIs expect.
func PadCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	return fmt.Sprintf("%010s", cik)
}

// LookupCIK resolves a ticker symbol to a padded CIK using the SEC company
// ticker list, loaded once and cached for the client's lifetime.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))

	c.tickerMu.Lock()
	defer c.tickerMu.Unlock()

	if cik, ok := c.tickerCache[normalized]; ok {
		return cik, nil
	}
	if len(c.tickerCache) == 0 {
		if err := c.loadTickerCache(ctx); err != nil {
			return "", err
		}
		if cik, ok := c.tickerCache[normalized]; ok {
			return cik, nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

func (c *Client) loadTickerCache(ctx context.Context) error {
	body, err := c.fetch(ctx, companyTickersURL)
	if err != nil {
		return fmt.Errorf("fetch company tickers: %w", err)
	}

	// {"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ...}
	var entries map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return fmt.Errorf("parse company tickers: %w", err)
	}

	c.tickerCache = make(map[string]string, len(entries))
	for _, entry := range entries {
		c.tickerCache[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
	}
	c.log.Info().Int("tickers", len(c.tickerCache)).Msg("loaded SEC ticker map")
	return nil
}

type submissionsResponse struct {
	CIK     json.Number `json:"cik"`
	Name    string      `json:"name"`
	Tickers []string    `json:"tickers"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// LatestFiling finds the most recent filing of the given form for a company.
// Amendments count: asking for a 10-K returns a 10-K/A when that is the
// newest on record.
func (c *Client) LatestFiling(ctx context.Context, cik, form string) (*FilingMetadata, error) {
	cik = PadCIK(cik)

	body, err := c.fetch(ctx, fmt.Sprintf(submissionsURL, cik))
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}
	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse submissions: %w", err)
	}

	recent := resp.Filings.Recent
	var best *FilingMetadata
	for i, f := range recent.Form {
		if !formMatches(form, f) {
			continue
		}
		if i >= len(recent.AccessionNumber) || i >= len(recent.FilingDate) || i >= len(recent.PrimaryDocument) {
			break
		}
		if best != nil && recent.FilingDate[i] <= best.FilingDate {
			continue
		}
		accession := recent.AccessionNumber[i]
		best = &FilingMetadata{
			CIK:             cik,
			CompanyName:     resp.Name,
			Tickers:         resp.Tickers,
			AccessionNumber: accession,
			FilingDate:      recent.FilingDate[i],
			Form:            f,
			PrimaryDocument: recent.PrimaryDocument[i],
			FilingURL:       FilingURL(cik, accession, recent.PrimaryDocument[i]),
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no %s filing found for CIK %s", form, cik)
	}
	return best, nil
}

func formMatches(wanted, actual string) bool {
	if wanted == actual {
		return true
	}
	// "10-K" also accepts its amendment forms
	return strings.HasPrefix(actual, wanted+"/") || actual == wanted+"A"
}

// FilingURL builds the archive URL for a filing document.
func FilingURL(cik, accession, primaryDocument string) string {
	return fmt.Sprintf(filingBaseURL,
		strings.TrimLeft(cik, "0"),
		strings.ReplaceAll(accession, "-", ""),
		primaryDocument)
}

// FetchFiling downloads the primary document of a filing.
func (c *Client) FetchFiling(ctx context.Context, meta *FilingMetadata) (filing.RawDocument, error) {
	c.log.Info().Str("url", meta.FilingURL).Str("form", meta.Form).Msg("downloading filing")
	body, err := c.fetch(ctx, meta.FilingURL)
	if err != nil {
		return filing.RawDocument{}, fmt.Errorf("fetch filing: %w", err)
	}
	return filing.RawDocument{Source: meta.FilingURL, Text: string(body)}, nil
}

// CompanyFacts fetches the full XBRL fact dataset for a company.
func (c *Client) CompanyFacts(ctx context.Context, cik string) (facts.Dataset, error) {
	body, err := c.fetch(ctx, fmt.Sprintf(companyFactsURL, PadCIK(cik)))
	if err != nil {
		return facts.Dataset{}, fmt.Errorf("fetch company facts: %w", err)
	}
	var dataset facts.Dataset
	if err := json.Unmarshal(body, &dataset); err != nil {
		return facts.Dataset{}, fmt.Errorf("parse company facts: %w", err)
	}
	return dataset, nil
}

// CompanyConcept fetches the fact history for a single taxonomy concept,
// e.g. ("us-gaap", "Revenues").
func (c *Client) CompanyConcept(ctx context.Context, cik, taxonomy, tag string) (facts.Concept, error) {
	body, err := c.fetch(ctx, fmt.Sprintf(companyConceptURL, PadCIK(cik), taxonomy, tag))
	if err != nil {
		return facts.Concept{}, fmt.Errorf("fetch company concept: %w", err)
	}
	var concept facts.Concept
	if err := json.Unmarshal(body, &concept); err != nil {
		return facts.Concept{}, fmt.Errorf("parse company concept: %w", err)
	}
	return concept, nil
}
