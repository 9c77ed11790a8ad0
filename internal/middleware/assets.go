package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const assetCacheControl = "public, max-age=3600, stale-while-revalidate=86400"

// SiteAssets serves a site directory with Cache-Control, Vary and ETag
// handling. Files under a volatile prefix are served with no-cache and
// without a precomputed ETag, so edits to them are visible immediately.
type SiteAssets struct {
	files    http.Handler
	etags    map[string]string
	volatile []string
}

// AssetsWithCache builds a SiteAssets handler for dir.
func AssetsWithCache(dir string, volatile ...string) *SiteAssets {
	a := &SiteAssets{
		files:    http.FileServer(http.Dir(dir)),
		etags:    map[string]string{},
		volatile: volatile,
	}
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		urlPath := "/" + filepath.ToSlash(rel)
		if a.isVolatile(urlPath) {
			return nil
		}
		if tag, err := contentETag(p); err == nil {
			a.etags[urlPath] = tag
		}
		return nil
	})
	return a
}

func (a *SiteAssets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Vary", "Accept-Encoding")
	if a.isVolatile(r.URL.Path) {
		h.Set("Cache-Control", "no-cache")
		a.files.ServeHTTP(w, r)
		return
	}
	h.Set("Cache-Control", assetCacheControl)
	if tag, ok := a.ETag(r.URL.Path); ok {
		h.Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	a.files.ServeHTTP(w, r)
}

// ETag returns the tag computed at startup for a URL path. Directory paths
// map to their index.html.
func (a *SiteAssets) ETag(urlPath string) (string, bool) {
	if strings.HasSuffix(urlPath, "/") {
		urlPath += "index.html"
	}
	tag, ok := a.etags[urlPath]
	return tag, ok
}

func (a *SiteAssets) isVolatile(urlPath string) bool {
	for _, prefix := range a.volatile {
		if strings.HasPrefix(urlPath, prefix) {
			return true
		}
	}
	return false
}

func contentETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", err
	}
	return `W/"` + hex.EncodeToString(sum.Sum(nil)[:16]) + `"`, nil
}
