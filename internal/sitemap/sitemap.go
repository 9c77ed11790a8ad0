// Package sitemap builds sitemap.xml for the portfolio: the single page root
// plus the static blog articles.
package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Namespace is the sitemaps.org schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

const (
	rootPriority = "1.0"
	pagePriority = "0.8"
	changeFreq   = "monthly"
	dateLayout   = "2006-01-02"
)

// URLSet is the document root.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one sitemap entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Build lists the site root, last modified at now, followed by every
// blogDir/*.html file in name order. A missing blogDir yields the root only.
func Build(baseURL, blogDir string, now time.Time) (URLSet, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return URLSet{}, fmt.Errorf("sitemap: base url %q must be absolute", baseURL)
	}
	root := strings.TrimSuffix(base.String(), "/")

	set := URLSet{XMLNS: Namespace}
	set.URLs = append(set.URLs, URL{
		Loc:        root + "/",
		LastMod:    now.Format(dateLayout),
		ChangeFreq: changeFreq,
		Priority:   rootPriority,
	})

	if blogDir == "" {
		return set, nil
	}
	entries, err := os.ReadDir(blogDir)
	if errors.Is(err, fs.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return URLSet{}, fmt.Errorf("sitemap: read %s: %w", blogDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".html" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return URLSet{}, fmt.Errorf("sitemap: stat %s: %w", e.Name(), err)
		}
		set.URLs = append(set.URLs, URL{
			Loc:        root + "/blog/" + url.PathEscape(e.Name()),
			LastMod:    info.ModTime().Format(dateLayout),
			ChangeFreq: changeFreq,
			Priority:   pagePriority,
		})
	}
	return set, nil
}

// Write encodes set as an indented XML document.
func Write(w io.Writer, set URLSet) error {
	if set.XMLNS == "" {
		set.XMLNS = Namespace
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("sitemap: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes set to path.
func WriteFile(path string, set URLSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, set); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
