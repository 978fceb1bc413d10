package filing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLExtractor converts raw filing HTML into the plain-text form the
// preprocessor and boundary detector operate on. Tables are rendered as
// pipe-delimited rows so they stay recognizable downstream.
type HTMLExtractor struct{}

// NewHTMLExtractor returns an extractor with default behavior.
func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

var collapseBlank = regexp.MustCompile(`\n{3,}`)

// ExtractText parses htmlContent and returns plain text with one line per
// block element. Input that contains no markup comes back unchanged.
func (e *HTMLExtractor) ExtractText(htmlContent string) (string, error) {
	if !strings.Contains(htmlContent, "<") {
		return htmlContent, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	e.removeNoise(doc)
	e.flattenTables(doc)

	var sb strings.Builder
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	for _, node := range root.Nodes {
		renderNodeText(node, &sb)
	}

	return strings.TrimSpace(collapseBlank.ReplaceAllString(sb.String(), "\n\n")), nil
}

// removeNoise drops elements that never carry filing content.
func (e *HTMLExtractor) removeNoise(doc *goquery.Document) {
	doc.Find("script, style, head, ix\\:header").Remove()

	// Hidden inline-XBRL containers and transparent spacer images.
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		styleLower := strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(styleLower, "display:none") || strings.Contains(styleLower, "visibility:hidden") {
			sel.Remove()
		}
	})
	doc.Find("img").Remove()
}

// flattenTables rewrites each <table> as a <pre> block of newline-separated
// rows with cells joined by " | ". The <pre> keeps the newlines intact
// through text rendering.
func (e *HTMLExtractor) flattenTables(doc *goquery.Document) {
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
			})
			row := strings.TrimSpace(strings.Join(cells, " | "))
			if row != "" && row != "|" {
				rows = append(rows, row)
			}
		})
		if len(rows) == 0 {
			table.Remove()
			return
		}
		table.ReplaceWithHtml("<pre>" + html.EscapeString(strings.Join(rows, "\n")) + "</pre>")
	})
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "tr": true, "table": true,
	"pre": true, "blockquote": true, "hr": true,
}

// renderNodeText walks the DOM emitting text, inserting newlines at block
// element boundaries so headers and paragraphs land on their own lines.
func renderNodeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if n.Parent != nil && n.Parent.Data == "pre" {
			sb.WriteString(n.Data)
			return
		}
		text := strings.Join(strings.Fields(n.Data), " ")
		if text != "" {
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
		}
	case html.ElementNode:
		if n.Data == "br" {
			sb.WriteString("\n")
			return
		}
		block := blockTags[n.Data]
		if block && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderNodeText(c, sb)
		}
		if block && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderNodeText(c, sb)
		}
	}
}
