package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finitefield.org/portfolio-web/internal/config"
	"finitefield.org/portfolio-web/internal/server"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig().Server
	cfg.Dir = "../../testdata/site"
	ts := httptest.NewServer(server.NewRouter(cfg, zap.NewNop()))
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runWithConfig(t, filepath.Join(t.TempDir(), "folio.yml"), stdin, args...)
}

func runWithConfig(t *testing.T, cfg, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestNavigatePrintsContent(t *testing.T) {
	t.Parallel()

	ts := newSite(t)
	out, err := run(t, "", "navigate", "cv", "--base-url", ts.URL+"/", "--format", "text")
	require.NoError(t, err)
	require.Contains(t, out, "Curriculum Vitae")
	require.Contains(t, out, "Download CV (PDF)")
	require.NotContains(t, out, "Data engineer")
}

func TestNavigateWithoutPageUsesHash(t *testing.T) {
	t.Parallel()

	ts := newSite(t)
	out, err := run(t, "", "navigate", "--hash", "#about", "--base-url", ts.URL+"/", "--format", "markdown")
	require.NoError(t, err)
	require.Contains(t, out, "# About")

	out, err = run(t, "", "navigate", "--hash", "#nowhere", "--base-url", ts.URL+"/", "--format", "text")
	require.NoError(t, err)
	require.Contains(t, out, "Data engineer", "unknown hash at startup shows home")
}

func TestNavigateFullDocumentMarksActiveNav(t *testing.T) {
	t.Parallel()

	ts := newSite(t)
	out, err := run(t, "", "navigate", "resume", "--base-url", ts.URL+"/", "--full")
	require.NoError(t, err)
	require.Contains(t, out, `<a href="#home" data-page="home" class="active">`)
	require.Contains(t, out, `href="resume.pdf"`)
}

func TestNavigateRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "navigate", "cv", "--format", "pdf")
	require.ErrorContains(t, err, "unknown format")
}

func TestBrowseFollowsFragmentChanges(t *testing.T) {
	t.Parallel()

	ts := newSite(t)
	out, err := run(t, "#about\nnowhere\nback\nforward\nforward\nquit\nprojects\n",
		"browse", "--base-url", ts.URL+"/")
	require.NoError(t, err)

	require.Contains(t, out, "#home  [Resume] CV Projects")
	require.Contains(t, out, "#about  Resume CV Projects Articles Tutorials Blog [About]")
	require.Contains(t, out, "#nowhere  Resume CV Projects Articles Tutorials Blog [About]", "unknown fragment is ignored")
	require.Contains(t, out, "no later entry")
	require.NotContains(t, out, "#projects", "commands after quit are not read")
}

func TestBrowseMenuFollowsDocumentAfterFailure(t *testing.T) {
	t.Parallel()

	ts := newSite(t)
	dir := t.TempDir()
	routesFile := filepath.Join(dir, "routes.yml")
	require.NoError(t, os.WriteFile(routesFile, []byte(`routes:
  home: [components/resume.html]
  cv: [components/cv.html]
  projects: [components/missing.html]
`), 0o644))
	cfg := filepath.Join(dir, "folio.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("site:\n  routes_file: "+routesFile+"\n"), 0o644))

	out, err := runWithConfig(t, cfg, "cv\nprojects\nquit\n", "browse", "--base-url", ts.URL+"/")
	require.NoError(t, err)
	require.Contains(t, out, "#projects  Resume [CV] Projects", "a failed load keeps the previous highlight")
	require.Contains(t, out, "Error loading content.")
}

func TestRoutesListsTable(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "routes")
	require.NoError(t, err)
	require.Contains(t, out, "PAGE")
	require.Regexp(t, `cv\s+components/cv.html, components/downloads.html\s+cv\.\*`, out)
	require.Regexp(t, `about\s+components/about.html\s+resume\.\*`, out)
}

func TestSitemapToStdout(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "sitemap", "--base-url", "https://folio.example/", "-o", "-")
	require.NoError(t, err)
	require.Contains(t, out, "<loc>https://folio.example/</loc>")
}

func TestBlogBuildWritesPagesIndexAndSitemap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "posts")
	site := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "first-post.md"),
		[]byte("---\ntitle: First Post\ndate: 2024-02-01\ntags: [go]\nsummary: Hello\n---\n# Hi\n"), 0o644))
	cfg := filepath.Join(dir, "folio.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("site:\n  base_url: https://folio.example/\nserver:\n  dir: "+site+"\nbuild:\n  blog_source: "+src+"\n"), 0o644))

	out, err := runWithConfig(t, cfg, "", "blog", "build")
	require.NoError(t, err)
	require.Contains(t, out, "blog/first-post.html  First Post")

	require.FileExists(t, filepath.Join(site, "blog", "first-post.html"))
	index, err := os.ReadFile(filepath.Join(site, "components", "blog.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), `href="blog/first-post.html"`)
	sitemap, err := os.ReadFile(filepath.Join(site, "sitemap.xml"))
	require.NoError(t, err)
	require.Contains(t, string(sitemap), "<loc>https://folio.example/blog/first-post.html</loc>")
}

func TestResumeRenderAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "store.yaml"), []byte("name:\n  title: Jane Doe\n"), 0o644))
	for _, target := range []string{"resume", "cv"} {
		require.NoError(t, os.WriteFile(filepath.Join(data, target+".yaml"),
			[]byte("sections:\n  - type: header_block\n    config: {content_key: name, subtitle: "+target+"}\n"), 0o644))
	}
	cfg := filepath.Join(dir, "folio.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("server:\n  dir: "+dir+"\nbuild:\n  data_dir: "+data+"\n"), 0o644))

	_, err := runWithConfig(t, cfg, "", "resume", "render", "--target", "all")
	require.NoError(t, err)
	md, err := os.ReadFile(filepath.Join(dir, "cv.md"))
	require.NoError(t, err)
	require.Equal(t, "# Jane Doe\n**cv**\n", string(md))
	require.FileExists(t, filepath.Join(dir, "resume.md"))

	_, err = runWithConfig(t, cfg, "", "resume", "render", "--target", "word_test")
	require.ErrorContains(t, err, "unknown target")
}
