// Package filings exposes the parsing and data filtering pipeline over HTTP.
package filings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/filing"
	"filinglens/pkg/core/pipeline"
	"filinglens/pkg/core/utils"
)

// sectionContentLimit bounds section content in responses. Full text stays
// available through the reported length plus a range request later if needed.
const sectionContentLimit = 5000

// Server routes API requests to the pipeline.
type Server struct {
	router chi.Router
	orch   *pipeline.Orchestrator
	log    zerolog.Logger
}

// NewServer builds the HTTP server around an orchestrator.
func NewServer(orch *pipeline.Orchestrator, log zerolog.Logger) *Server {
	s := &Server{orch: orch, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/filings/{company}", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/sections/{path}", s.handleSection)
		r.Get("/search", s.handleSearch)
	})
	r.Post("/api/companies/{company}/data", s.handleCompanyData)

	s.router = r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type treeResponse struct {
	Filing   *edgar.FilingMetadata `json:"filing"`
	Sections []sectionSummary      `json:"sections"`
	Missing  []string              `json:"missing_sections,omitempty"`
}

type sectionSummary struct {
	SectionID     string `json:"section_id"`
	Path          string `json:"path"`
	Title         string `json:"title"`
	ContentLength int    `json:"content_length"`
	VisualCount   int    `json:"visual_count"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	form := r.URL.Query().Get("form")

	tree, meta, err := s.orch.ParseFiling(r.Context(), company, form)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	resp := treeResponse{Filing: meta, Missing: tree.Missing}
	for _, sec := range tree.Sections {
		resp.Sections = append(resp.Sections, sectionSummary{
			SectionID:     sec.SectionID,
			Path:          sec.Path,
			Title:         sec.Title,
			ContentLength: len(sec.Content),
			VisualCount:   len(sec.Visuals),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type sectionResponse struct {
	Filing            *edgar.FilingMetadata  `json:"filing"`
	Path              string                 `json:"path"`
	Title             string                 `json:"title"`
	Purpose           string                 `json:"purpose,omitempty"`
	Content           string                 `json:"content"`
	FullContentLength int                    `json:"full_content_length"`
	VisualElements    []filing.VisualElement `json:"visual_elements,omitempty"`
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	path := chi.URLParam(r, "path")
	form := r.URL.Query().Get("form")

	sec, meta, err := s.orch.GetSection(r.Context(), company, form, path)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	content := sec.Content
	if len(content) > sectionContentLimit {
		content = content[:sectionContentLimit] + "..."
	}

	if r.URL.Query().Get("format") == "html" {
		html, err := utils.RenderMarkdown(sectionMarkdown(sec, content))
		if err != nil {
			jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}

	writeJSON(w, http.StatusOK, sectionResponse{
		Filing:            meta,
		Path:              sec.Path,
		Title:             sec.Title,
		Purpose:           sec.Purpose,
		Content:           content,
		FullContentLength: len(sec.Content),
		VisualElements:    sec.Visuals,
	})
}

type searchMatch struct {
	SectionID string `json:"section_id"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	form := r.URL.Query().Get("form")
	raw := r.URL.Query().Get("keywords")
	if raw == "" {
		jsonError(w, "keywords query parameter is required", http.StatusBadRequest)
		return
	}
	keywords := splitKeywords(raw)

	sections, meta, err := s.orch.SearchFiling(r.Context(), company, form, keywords)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	matches := make([]searchMatch, 0, len(sections))
	for _, sec := range sections {
		matches = append(matches, searchMatch{
			SectionID: sec.SectionID,
			Path:      sec.Path,
			Title:     sec.Title,
			Excerpt:   excerpt(sec.Content, keywords),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filing":  meta,
		"matches": matches,
	})
}

type dataRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleCompanyData(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")

	var req dataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	out, err := s.orch.CompanyData(r.Context(), company, req.Question)
	if err != nil {
		s.pipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// pipelineError maps pipeline failures to status codes: unknown sections and
// companies are client errors, upstream and parse failures are 502/500.
func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	var nf *filing.NotFoundError
	if errors.As(err, &nf) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	var fe *edgar.FetchError
	if errors.As(err, &fe) {
		s.log.Error().Err(err).Msg("edgar fetch failed")
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if strings.Contains(err.Error(), "not found") {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error().Err(err).Msg("pipeline error")
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

// sectionMarkdown builds a Markdown view of a section for HTML rendering.
func sectionMarkdown(sec *filing.FilingSection, content string) string {
	var b strings.Builder
	b.WriteString("# " + sec.Path + ": " + sec.Title + "\n\n")
	if sec.Purpose != "" {
		b.WriteString("*" + sec.Purpose + "*\n\n")
	}
	b.WriteString(content)
	for _, v := range sec.Visuals {
		b.WriteString("\n\n> " + v.Description)
	}
	return b.String()
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// excerpt returns a short window of content around the first keyword hit.
func excerpt(content string, keywords []string) string {
	const window = 160
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		idx := strings.Index(lower, strings.ToLower(kw))
		if idx < 0 {
			continue
		}
		start := idx - window/2
		if start < 0 {
			start = 0
		}
		end := start + window
		if end > len(content) {
			end = len(content)
		}
		return strings.TrimSpace(content[start:end])
	}
	if len(content) > window {
		return strings.TrimSpace(content[:window])
	}
	return strings.TrimSpace(content)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
