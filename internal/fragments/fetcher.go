// Package fragments fetches pre-rendered page fragments over HTTP.
package fragments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RevisionParam is the query parameter carrying the deployment revision.
const RevisionParam = "v"

const maxFragmentBytes = 4 << 20

// ErrTooLarge is wrapped in a LoadError when a response exceeds 4 MiB.
var ErrTooLarge = errors.New("fragment exceeds 4 MiB")

var tracer = otel.Tracer("finitefield.org/portfolio-web/internal/fragments")

// Fragment is a piece of markup ready to be inserted into the content region.
type Fragment struct {
	Path string
	HTML string
}

// LoadError reports a fragment that could not be fetched or parsed.
type LoadError struct {
	Path   string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fragments: failed to load %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("fragments: failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Fetcher retrieves fragments relative to a site base URL.
type Fetcher struct {
	base     *url.URL
	http     *http.Client
	revision string
	timeout  time.Duration
	policy   *bluemonday.Policy
	md       goldmark.Markdown
	logger   *zap.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// WithRevision sets the cache-defeating revision sent with every request.
func WithRevision(rev string) Option {
	return func(f *Fetcher) { f.revision = strings.TrimSpace(rev) }
}

// WithTimeout bounds each request. Zero means no limit beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithSanitize filters fragment markup through a UGC policy.
func WithSanitize(enabled bool) Option {
	return func(f *Fetcher) {
		if enabled {
			f.policy = newFragmentPolicy()
		} else {
			f.policy = nil
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New returns a Fetcher for the site rooted at baseURL.
func New(baseURL string, opts ...Option) (*Fetcher, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("fragments: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("fragments: base url %q must be absolute", baseURL)
	}
	// A directory-like base needs a trailing slash so relative paths resolve beneath it.
	if !strings.HasSuffix(base.Path, "/") && path.Ext(base.Path) == "" {
		base.Path += "/"
	}
	f := &Fetcher{
		base:   base,
		http:   &http.Client{},
		logger: zap.NewNop(),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func newFragmentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("section", "article", "header", "footer", "figure", "figcaption")
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowAttrs("data-page").OnElements("a")
	policy.AllowAttrs("loading").OnElements("img")
	return policy
}

// Base returns the resolved site base URL.
func (f *Fetcher) Base() string { return f.base.String() }

// URL resolves p against the base and appends the revision parameter.
func (f *Fetcher) URL(p string) (*url.URL, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	u := f.base.ResolveReference(ref)
	if f.revision != "" {
		q := u.Query()
		q.Set(RevisionParam, f.revision)
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// Get performs the raw GET for p and returns the body of a 2xx response.
func (f *Fetcher) Get(ctx context.Context, p string) ([]byte, error) {
	u, err := f.URL(p)
	if err != nil {
		return nil, &LoadError{Path: p, Err: err}
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &LoadError{Path: p, Err: err}
	}
	req.Header.Set("Accept", "text/html, text/markdown;q=0.9, */*;q=0.1")
	if f.revision == "" {
		req.Header.Set("Cache-Control", "no-cache")
	}
	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &LoadError{Path: p, Err: err}
	}
	defer resp.Body.Close()
	f.logger.Debug("fragment response",
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFragmentBytes))
		return nil, &LoadError{Path: p, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes+1))
	if err != nil {
		return nil, &LoadError{Path: p, Err: err}
	}
	if len(body) > maxFragmentBytes {
		return nil, &LoadError{Path: p, Err: ErrTooLarge}
	}
	return body, nil
}

// Fetch loads the fragment at p and returns it as insertable markup.
func (f *Fetcher) Fetch(ctx context.Context, p string) (Fragment, error) {
	ctx, span := tracer.Start(ctx, "fragments.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("fragment.path", p)),
	)
	defer span.End()

	frag, err := f.fetch(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fragment load failed")
		return Fragment{}, err
	}
	return frag, nil
}

func (f *Fetcher) fetch(ctx context.Context, p string) (Fragment, error) {
	body, err := f.Get(ctx, p)
	if err != nil {
		return Fragment{}, err
	}
	if !utf8.Valid(body) {
		return Fragment{}, &LoadError{Path: p, Err: fmt.Errorf("body is not valid UTF-8")}
	}
	if isMarkdown(p) {
		var buf bytes.Buffer
		if err := f.md.Convert(body, &buf); err != nil {
			return Fragment{}, &LoadError{Path: p, Err: fmt.Errorf("render markdown: %w", err)}
		}
		body = buf.Bytes()
	}
	markup := string(body)
	if f.policy != nil {
		markup = f.policy.Sanitize(markup)
	}
	if _, err := html.ParseFragment(strings.NewReader(markup), contentContext()); err != nil {
		return Fragment{}, &LoadError{Path: p, Err: fmt.Errorf("parse markup: %w", err)}
	}
	return Fragment{Path: p, HTML: markup}, nil
}

func isMarkdown(p string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(path.Ext(p))
	return ext == ".md" || ext == ".markdown"
}

func contentContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}
