// Package blog builds the static blog: one standalone page per markdown post
// under blog/ and the routed components/blog.html index fragment.
package blog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// PostsDir is where standalone post pages are written, relative to the site.
	PostsDir = "blog"
	// IndexFragment is the routed blog fragment, relative to the site.
	IndexFragment = "components/blog.html"

	dateLayout = "2006-01-02"
)

// ErrNoFrontMatter marks a markdown file without a leading front matter block.
var ErrNoFrontMatter = errors.New("blog: missing front matter")

// Post is one rendered article.
type Post struct {
	Slug    string
	Title   string
	Date    time.Time
	Tags    []string
	Summary string
	Content template.HTML
}

// Link is the site-relative URL of the standalone page.
func (p Post) Link() string { return PostsDir + "/" + p.Slug + ".html" }

// DateLabel formats Date for display.
func (p Post) DateLabel() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format(dateLayout)
}

type frontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags"`
	Summary string   `yaml:"summary"`
	Slug    string   `yaml:"slug"`
}

// Builder renders posts and the index fragment.
type Builder struct {
	md     goldmark.Markdown
	post   *template.Template
	index  *template.Template
	logger *zap.Logger
}

// Option customises a Builder.
type Option func(*Builder) error

// WithPostTemplate replaces the standalone page layout with the html/template
// file at path. The template receives a Post.
func WithPostTemplate(path string) Option {
	return func(b *Builder) error {
		if strings.TrimSpace(path) == "" {
			return nil
		}
		t, err := template.ParseFiles(path)
		if err != nil {
			return fmt.Errorf("blog: parse post template: %w", err)
		}
		b.post = t
		return nil
	}
}

// WithLogger sets the logger used to report skipped files.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) error {
		if l != nil {
			b.logger = l
		}
		return nil
	}
}

// NewBuilder returns a Builder with GFM and syntax highlighting enabled.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(highlighting.WithStyle("github")),
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		post:   template.Must(template.New("post").Parse(postTemplate)),
		index:  template.Must(template.New("index").Parse(indexTemplate)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Parse renders a single markdown post. name is the file name and provides
// the slug when the front matter has none.
func (b *Builder) Parse(name string, data []byte) (Post, error) {
	fm, body, ok := splitFrontMatter(string(data))
	if !ok {
		return Post{}, fmt.Errorf("%w: %s", ErrNoFrontMatter, name)
	}
	var front frontMatter
	if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
		return Post{}, fmt.Errorf("blog: parse front matter %s: %w", name, err)
	}
	slug := sanitizeSlug(front.Slug)
	if slug == "" {
		slug = sanitizeSlug(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	}
	if slug == "" {
		return Post{}, fmt.Errorf("blog: %s: invalid slug", name)
	}
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(body), &buf); err != nil {
		return Post{}, fmt.Errorf("blog: render %s: %w", name, err)
	}
	title := strings.TrimSpace(front.Title)
	if title == "" {
		title = prettifySlug(slug)
	}
	return Post{
		Slug:    slug,
		Title:   title,
		Date:    parseDate(front.Date),
		Tags:    front.Tags,
		Summary: strings.TrimSpace(front.Summary),
		Content: template.HTML(buf.String()),
	}, nil
}

// Load parses every *.md file in dir, newest first. Files without front
// matter are skipped and logged; any other error aborts.
func (b *Builder) Load(dir string) ([]Post, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("blog: read %s: %w", dir, err)
	}
	var posts []Post
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		post, err := b.Parse(e.Name(), data)
		if errors.Is(err, ErrNoFrontMatter) {
			b.logger.Warn("skipping post without front matter", zap.String("file", e.Name()))
			continue
		}
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[post.Slug]; dup {
			return nil, fmt.Errorf("blog: %s and %s share slug %q", prev, e.Name(), post.Slug)
		}
		seen[post.Slug] = e.Name()
		posts = append(posts, post)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Slug < posts[j].Slug
	})
	return posts, nil
}

// RenderPost writes the standalone page for p.
func (b *Builder) RenderPost(w io.Writer, p Post) error {
	return b.post.Execute(w, p)
}

// RenderIndex writes the blog index fragment for posts.
func (b *Builder) RenderIndex(w io.Writer, posts []Post) error {
	return b.index.Execute(w, posts)
}

// Build renders the posts in srcDir into siteDir and returns them.
func (b *Builder) Build(srcDir, siteDir string) ([]Post, error) {
	posts, err := b.Load(srcDir)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if err := writeFile(filepath.Join(siteDir, PostsDir, p.Slug+".html"), func(w io.Writer) error {
			return b.RenderPost(w, p)
		}); err != nil {
			return nil, fmt.Errorf("blog: write %s: %w", p.Slug, err)
		}
	}
	if err := writeFile(filepath.Join(siteDir, filepath.FromSlash(IndexFragment)), func(w io.Writer) error {
		return b.RenderIndex(w, posts)
	}); err != nil {
		return nil, fmt.Errorf("blog: write index: %w", err)
	}
	b.logger.Info("blog built", zap.Int("posts", len(posts)), zap.String("site", siteDir))
	return posts, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), fs.FileMode(0o644))
}

func splitFrontMatter(input string) (string, string, bool) {
	input = strings.TrimPrefix(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r"), true
		}
	}
	return "", input, false
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339, dateLayout, "2006/01/02", "2006-1-2"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(strings.ToLower(slug)), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
