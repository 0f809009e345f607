package extractors

import (
	"context"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
)

// HTMLExtractor renders an HTML document down to a markdown-ish text
// representation: headings become "#" runs, paragraphs and list items become
// lines, and script/style contents are dropped entirely rather than leaked
// into the output.
type HTMLExtractor struct{}

// NewHTMLExtractor builds the bundled HTML extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

func (e *HTMLExtractor) Name() string { return "html" }
func (e *HTMLExtractor) Priority() int { return 0 }

func (e *HTMLExtractor) SupportedMimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (e *HTMLExtractor) Initialize(ctx context.Context) error { return nil }
func (e *HTMLExtractor) Shutdown(ctx context.Context) error { return nil }

func (e *HTMLExtractor) ExtractFile(ctx context.Context, path, mimeType string, config extract.Config) (*extract.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorkind.NewIO("failed to read file for html extraction", err)
	}
	return e.ExtractBytes(ctx, data, mimeType, config)
}

func (e *HTMLExtractor) ExtractBytes(ctx context.Context, buf []byte, mimeType string, config extract.Config) (*extract.Output, error) {
	doc, err := html.Parse(strings.NewReader(string(buf)))
	if err != nil {
		return nil, errorkind.NewParsing("failed to parse html document", err)
	}

	conv := &htmlConverter{metadata: map[string]interface{}{"mime_type": mimeType}}
	conv.walk(doc)
	content := strings.TrimSpace(collapseBlankLines(conv.sb.String()))

	return &extract.Output{Content: content, Metadata: conv.metadata}, nil
}

type htmlConverter struct {
	sb       strings.Builder
	metadata map[string]interface{}
	inSkip   int // > 0 while inside <script>/<style>/<noscript>
}

func (c *htmlConverter) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript:
			c.inSkip++
			defer func() { c.inSkip-- }()
		case atom.Title:
			if text := textContent(n); text != "" {
				c.metadata["title"] = text
			}
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			c.sb.WriteString("\n" + strings.Repeat("#", headingLevel(n.DataAtom)) + " ")
		case atom.P, atom.Div, atom.Br, atom.Tr:
			c.sb.WriteString("\n")
		case atom.Li:
			c.sb.WriteString("\n- ")
		}
	case html.TextNode:
		if c.inSkip == 0 {
			if text := strings.TrimSpace(n.Data); text != "" {
				c.sb.WriteString(text + " ")
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}

	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Li, atom.Div:
			c.sb.WriteString("\n")
		}
	}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	default:
		return 6
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
