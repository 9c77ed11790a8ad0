package blog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const capacityPost = `---
title: Capacity Planning
date: 2024-03-10
tags: [ops, sre]
summary: Sizing a fleet before it falls over.
---

# Headroom

Keep **30%** spare.

| cpu | mem |
|-----|-----|
| 4   | 8   |
`

func writePosts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestParseReadsFrontMatterAndRendersGFM(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder()
	require.NoError(t, err)
	post, err := b.Parse("capacity-planning.md", []byte(capacityPost))
	require.NoError(t, err)

	require.Equal(t, "capacity-planning", post.Slug)
	require.Equal(t, "Capacity Planning", post.Title)
	require.Equal(t, "2024-03-10", post.DateLabel())
	require.Equal(t, []string{"ops", "sre"}, post.Tags)
	require.Equal(t, "blog/capacity-planning.html", post.Link())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(post.Content)))
	require.NoError(t, err)
	require.Equal(t, "headroom", doc.Find("h1").AttrOr("id", ""))
	require.Equal(t, "30%", doc.Find("strong").Text())
	require.Equal(t, 1, doc.Find("table").Length())
}

func TestParseSlugFallbacks(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder()
	require.NoError(t, err)

	post, err := b.Parse("Go-Tips.md", []byte("---\ndate: 2024/01/02\n---\nbody\n"))
	require.NoError(t, err)
	require.Equal(t, "go-tips", post.Slug)
	require.Equal(t, "Go Tips", post.Title)
	require.Equal(t, "2024-01-02", post.DateLabel())

	post, err = b.Parse("x.md", []byte("---\nslug: Custom\n---\nbody\n"))
	require.NoError(t, err)
	require.Equal(t, "custom", post.Slug)

	_, err = b.Parse("x.md", []byte("---\nslug: ../escape\n---\nbody\n"))
	require.Error(t, err)
}

func TestParseWithoutFrontMatter(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder()
	require.NoError(t, err)
	_, err = b.Parse("draft.md", []byte("# just text\n"))
	require.True(t, errors.Is(err, ErrNoFrontMatter))

	_, err = b.Parse("open.md", []byte("---\ntitle: never closed\n"))
	require.True(t, errors.Is(err, ErrNoFrontMatter))
}

func TestLoadOrdersNewestFirstAndSkipsDrafts(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	b, err := NewBuilder(WithLogger(zap.New(core)))
	require.NoError(t, err)

	dir := writePosts(t, map[string]string{
		"old.md":    "---\ntitle: Old\ndate: 2023-01-01\n---\nold\n",
		"new.md":    "---\ntitle: New\ndate: 2024-06-01\n---\nnew\n",
		"same-b.md": "---\ntitle: B\ndate: 2023-01-01\n---\nb\n",
		"draft.md":  "no front matter\n",
		"notes.txt": "ignored\n",
	})
	posts, err := b.Load(dir)
	require.NoError(t, err)

	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	require.Equal(t, []string{"new", "old", "same-b"}, slugs)
	require.Equal(t, 1, logs.FilterMessage("skipping post without front matter").Len())
}

func TestLoadRejectsDuplicateSlugs(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder()
	require.NoError(t, err)
	dir := writePosts(t, map[string]string{
		"a.md": "---\nslug: same\n---\na\n",
		"b.md": "---\nslug: same\n---\nb\n",
	})
	_, err = b.Load(dir)
	require.ErrorContains(t, err, `share slug "same"`)
}

func TestBuildWritesPagesAndIndex(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder()
	require.NoError(t, err)
	src := writePosts(t, map[string]string{
		"capacity-planning.md": capacityPost,
		"hello.md":             "---\ntitle: Hello <World>\ndate: 2024-05-01\nsummary: First\n---\nhi\n",
	})
	site := t.TempDir()

	posts, err := b.Build(src, site)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	page, err := os.ReadFile(filepath.Join(site, "blog", "capacity-planning.html"))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	require.NoError(t, err)
	require.Equal(t, "Capacity Planning", doc.Find("title").Text())
	require.Equal(t, 1, doc.Find(".post-content table").Length())

	index, err := os.ReadFile(filepath.Join(site, "components", "blog.html"))
	require.NoError(t, err)
	doc, err = goquery.NewDocumentFromReader(bytes.NewReader(index))
	require.NoError(t, err)
	cards := doc.Find(".blog-list .blog-card")
	require.Equal(t, 2, cards.Length())
	first := cards.First()
	require.Equal(t, "Hello <World>", first.Find("h3 a").Text())
	require.Equal(t, "blog/hello.html", first.Find("h3 a").AttrOr("href", ""))
	require.Equal(t, "blog/hello.html", first.Find("a.read-more").AttrOr("href", ""))
	require.Contains(t, cards.Eq(1).Find(".meta").Text(), "2024-03-10")
	require.Equal(t, 2, cards.Eq(1).Find(".meta .tag").Length())
}

func TestWithPostTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "post.html")
	require.NoError(t, os.WriteFile(path, []byte(`<main data-slug="{{.Slug}}">{{.Content}}</main>`), 0o644))

	b, err := NewBuilder(WithPostTemplate(path))
	require.NoError(t, err)
	post, err := b.Parse("x.md", []byte("---\ntitle: X\n---\n*em*\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.RenderPost(&buf, post))
	require.Contains(t, buf.String(), `<main data-slug="x"><p><em>em</em></p>`)

	_, err = NewBuilder(WithPostTemplate(filepath.Join(t.TempDir(), "missing.html")))
	require.Error(t, err)
}
