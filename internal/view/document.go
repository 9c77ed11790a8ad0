package view

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"finitefield.org/portfolio-web/internal/downloads"
	"finitefield.org/portfolio-web/internal/fragments"
	"finitefield.org/portfolio-web/internal/nav"
	"finitefield.org/portfolio-web/internal/routes"
)

// DefaultContentRegion is the id of the element that receives fragments.
const DefaultContentRegion = "content-area"

// DOM contract of the page shell.
const (
	navLinkSelector     = ".nav-menu li a"
	navAnySelector      = ".nav-menu a"
	downloadSelector    = ".btn-download."
	downloadLabel       = ".btn-label"
	descriptionSelector = ".download-description"
	activeClass         = "active"
)

// ErrNoContentRegion is returned when the shell lacks the content region.
var ErrNoContentRegion = errors.New("view: content region not found")

// Document is a View over an in-memory HTML page shell.
type Document struct {
	mu      sync.Mutex
	doc     *goquery.Document
	content *goquery.Selection
	md      *converter.Converter
}

// Option customises a Document.
type Option func(*docOptions)

type docOptions struct {
	region string
}

// WithContentRegion selects the content region by element id.
func WithContentRegion(id string) Option {
	return func(o *docOptions) {
		if id = strings.TrimSpace(strings.TrimPrefix(id, "#")); id != "" {
			o.region = id
		}
	}
}

// Parse reads a page shell.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	o := docOptions{region: DefaultContentRegion}
	for _, opt := range opts {
		opt(&o)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("view: parse shell: %w", err)
	}
	content := doc.Find("#" + o.region).First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("%w: #%s", ErrNoContentRegion, o.region)
	}
	return &Document{
		doc:     doc,
		content: content,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}, nil
}

// ParseString is Parse for an in-memory shell.
func ParseString(shell string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(shell), opts...)
}

// ResetContent empties the content region. A headless document has no
// scroll offset, so resetting it is a no-op.
func (d *Document) ResetContent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content.Empty()
}

func (d *Document) AppendFragment(frag fragments.Fragment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content.AppendHtml(`<div data-fragment="` + html.EscapeString(frag.Path) + `">` + frag.HTML + `</div>`)
}

func (d *Document) ShowError(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content.SetHtml(`<div class="container"><p>` + html.EscapeString(message) + `</p></div>`)
}

func (d *Document) SetActiveNav(page routes.PageID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(navLinkSelector).Each(func(_ int, link *goquery.Selection) {
		link.RemoveClass(activeClass)
		id, ok := link.Attr("data-page")
		if ok && id != "" && nav.IsActive(routes.PageID(id), page) {
			link.AddClass(activeClass)
		}
	})
}

func (d *Document) SetDownloads(dl downloads.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range downloads.Kinds {
		btn := d.doc.Find(downloadSelector + string(k)).First()
		if btn.Length() == 0 {
			continue
		}
		btn.SetAttr("href", dl.Href(k))
		if label := btn.Find(downloadLabel); label.Length() > 0 {
			label.SetText(dl.ButtonLabel(k))
		} else {
			btn.SetText(dl.ButtonLabel(k))
		}
	}
	d.doc.Find(descriptionSelector).SetText(dl.Description)
}

// ActiveNav returns the page of the first active nav link, or "" when none is.
func (d *Document) ActiveNav() routes.PageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	link := d.doc.Find(navLinkSelector + "." + activeClass + "[data-page]").First()
	return routes.PageID(link.AttrOr("data-page", ""))
}

// HighlightPath marks every nav link whose href is contained in path.
func (d *Document) HighlightPath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(navAnySelector).Each(func(_ int, link *goquery.Selection) {
		if href, ok := link.Attr("href"); ok && nav.MatchPath(path, href) {
			link.AddClass(activeClass)
		}
	})
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// ContentHTML renders the inner markup of the content region.
func (d *Document) ContentHTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content.Html()
}

// ContentText returns the whitespace-collapsed text of the content region.
func (d *Document) ContentText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	for _, n := range d.content.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(&b, c)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// writeText emits text nodes, separating block elements with whitespace.
func writeText(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(n.Data)
		return
	case xhtml.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	block := n.Type == xhtml.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}

// ContentMarkdown converts the content region to Markdown.
func (d *Document) ContentMarkdown() (string, error) {
	inner, err := d.ContentHTML()
	if err != nil {
		return "", err
	}
	out, err := d.md.ConvertString(inner)
	if err != nil {
		return "", fmt.Errorf("view: convert to markdown: %w", err)
	}
	return out, nil
}

// Render writes the content region in the given format: html, text or markdown.
func (d *Document) Render(w io.Writer, format string) error {
	var (
		out string
		err error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "html":
		out, err = d.ContentHTML()
	case "text":
		out = d.ContentText()
	case "markdown", "md":
		out, err = d.ContentMarkdown()
	default:
		return fmt.Errorf("view: unknown format %q", format)
	}
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(strings.TrimSpace(out))
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// Selection exposes a read-only query over the document for inspection.
func (d *Document) Selection(selector string) *goquery.Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Clone()
}

var _ View = (*Document)(nil)
