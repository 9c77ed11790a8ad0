package fragments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type siteStub struct {
	mu      sync.Mutex
	queries []string
	headers []http.Header
	files   map[string]string
}

func newSiteStub(t *testing.T, files map[string]string) (*siteStub, *httptest.Server) {
	t.Helper()
	s := &siteStub{files: files}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.RawQuery)
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()
		body, ok := s.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return s, srv
}

func TestFetchHTML(t *testing.T) {
	t.Parallel()

	_, srv := newSiteStub(t, map[string]string{
		"/components/about.html": `<section id="about"><h2>About</h2></section>`,
	})
	f, err := New(srv.URL)
	require.NoError(t, err)

	frag, err := f.Fetch(context.Background(), "components/about.html")
	require.NoError(t, err)
	require.Equal(t, "components/about.html", frag.Path)
	require.Equal(t, `<section id="about"><h2>About</h2></section>`, frag.HTML)
}

func TestFetchSendsRevision(t *testing.T) {
	t.Parallel()

	stub, srv := newSiteStub(t, map[string]string{"/components/cv.html": "<p>cv</p>"})
	f, err := New(srv.URL+"/", WithRevision("2024.06.1"))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "components/cv.html")
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Equal(t, []string{"v=2024.06.1"}, stub.queries)
	require.Empty(t, stub.headers[0].Get("Cache-Control"))
}

func TestFetchWithoutRevisionDisablesCache(t *testing.T) {
	t.Parallel()

	stub, srv := newSiteStub(t, map[string]string{"/components/cv.html": "<p>cv</p>"})
	f, err := New(srv.URL)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "components/cv.html")
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Equal(t, []string{""}, stub.queries)
	require.Equal(t, "no-cache", stub.headers[0].Get("Cache-Control"))
}

func TestFetchNonSuccessIsLoadError(t *testing.T) {
	t.Parallel()

	_, srv := newSiteStub(t, map[string]string{})
	f, err := New(srv.URL)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "components/missing.html")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	require.Equal(t, "components/missing.html", le.Path)
	require.Equal(t, http.StatusNotFound, le.Status)
	require.Contains(t, err.Error(), "components/missing.html")
}

func TestFetchInvalidUTF8IsLoadError(t *testing.T) {
	t.Parallel()

	_, srv := newSiteStub(t, map[string]string{"/bad.html": "<p>\xff\xfe</p>"})
	f, err := New(srv.URL)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "bad.html")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	require.Zero(t, le.Status)
}

func TestFetchRendersMarkdown(t *testing.T) {
	t.Parallel()

	_, srv := newSiteStub(t, map[string]string{"/components/notes.md": "# Notes\n\n- one\n- two\n"})
	f, err := New(srv.URL)
	require.NoError(t, err)

	frag, err := f.Fetch(context.Background(), "components/notes.md")
	require.NoError(t, err)
	require.Contains(t, frag.HTML, "<h1>Notes</h1>")
	require.Contains(t, frag.HTML, "<li>one</li>")
}

func TestFetchSanitize(t *testing.T) {
	t.Parallel()

	_, srv := newSiteStub(t, map[string]string{
		"/x.html": `<div class="card"><script>alert(1)</script><p>safe</p></div>`,
	})
	f, err := New(srv.URL, WithSanitize(true))
	require.NoError(t, err)

	frag, err := f.Fetch(context.Background(), "x.html")
	require.NoError(t, err)
	require.NotContains(t, frag.HTML, "<script>")
	require.Contains(t, frag.HTML, `<div class="card">`)
	require.Contains(t, frag.HTML, "<p>safe</p>")
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	f, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "slow.html")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewRequiresAbsoluteURL(t *testing.T) {
	t.Parallel()

	_, err := New("components/")
	require.Error(t, err)
}

func TestURLResolution(t *testing.T) {
	t.Parallel()

	f, err := New("https://example.com/portfolio")
	require.NoError(t, err)
	u, err := f.URL("components/cv.html")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/portfolio/components/cv.html", u.String())

	f, err = New("https://example.com/portfolio/index.html", WithRevision("abc"))
	require.NoError(t, err)
	u, err = f.URL("components/cv.html")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(u.String(), "/portfolio/components/cv.html?v=abc"))
}

func TestFetchOversizedIsLoadError(t *testing.T) {
	t.Parallel()

	exact := "<p>" + strings.Repeat("a", maxFragmentBytes-len("<p></p>")) + "</p>"
	_, srv := newSiteStub(t, map[string]string{
		"/components/exact.html": exact,
		"/components/huge.html":  exact + "<p>more</p>",
	})
	f, err := New(srv.URL)
	require.NoError(t, err)

	frag, err := f.Fetch(context.Background(), "components/exact.html")
	require.NoError(t, err)
	require.Len(t, frag.HTML, maxFragmentBytes)

	_, err = f.Fetch(context.Background(), "components/huge.html")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	require.Equal(t, "components/huge.html", le.Path)
	require.True(t, errors.Is(err, ErrTooLarge))
}
