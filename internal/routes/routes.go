package routes

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PageID is the logical identifier of a navigable section of the site.
type PageID string

const (
	Home      PageID = "home"
	Resume    PageID = "resume" // alias of Home
	CV        PageID = "cv"
	Projects  PageID = "projects"
	Articles  PageID = "articles"
	Tutorials PageID = "tutorials"
	Blog      PageID = "blog"
	About     PageID = "about"
)

// Table maps page identifiers to the ordered fragments that make up the page.
// A Table is immutable once constructed.
type Table struct {
	pages map[PageID][]string
}

// ErrNoHome is returned when a table has no route for the default page.
var ErrNoHome = errors.New("routes: table has no home route")

// NewTable validates and copies the given mapping.
func NewTable(m map[PageID][]string) (Table, error) {
	pages := make(map[PageID][]string, len(m))
	for id, frags := range m {
		id = PageID(strings.TrimSpace(string(id)))
		if id == "" {
			return Table{}, errors.New("routes: empty page id")
		}
		if len(frags) == 0 {
			return Table{}, fmt.Errorf("routes: page %q has no fragments", id)
		}
		cp := make([]string, 0, len(frags))
		for _, f := range frags {
			f = strings.TrimSpace(f)
			if f == "" {
				return Table{}, fmt.Errorf("routes: page %q has an empty fragment path", id)
			}
			cp = append(cp, f)
		}
		pages[id] = cp
	}
	if _, ok := pages[Home]; !ok {
		return Table{}, ErrNoHome
	}
	return Table{pages: pages}, nil
}

// Default returns the route table of the portfolio site.
func Default() Table {
	t, err := NewTable(map[PageID][]string{
		Home:      {"components/resume.html", "components/downloads.html"},
		Resume:    {"components/resume.html", "components/downloads.html"},
		CV:        {"components/cv.html", "components/downloads.html"},
		Projects:  {"components/projects.html"},
		Articles:  {"components/articles.html"},
		Tutorials: {"components/tutorials.html"},
		Blog:      {"components/blog.html"},
		About:     {"components/about.html"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the page that will actually be shown for id and its fragments.
// Unknown ids fall back to Home.
func (t Table) Resolve(id PageID) (PageID, []string) {
	frags, ok := t.pages[id]
	if !ok {
		id = Home
		frags = t.pages[Home]
	}
	out := make([]string, len(frags))
	copy(out, frags)
	return id, out
}

// Known reports whether id has its own route.
func (t Table) Known(id PageID) bool {
	_, ok := t.pages[id]
	return ok
}

// Pages lists the routed page ids in lexical order.
func (t Table) Pages() []PageID {
	ids := make([]PageID, 0, len(t.pages))
	for id := range t.pages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type routeFile struct {
	Routes map[string][]string `yaml:"routes"`
}

// LoadFile reads a route table from a YAML file of the form
//
//	routes:
//	  home: [components/resume.html, components/downloads.html]
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("routes: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML route table.
func Parse(data []byte) (Table, error) {
	var rf routeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return Table{}, fmt.Errorf("routes: parse: %w", err)
	}
	if len(rf.Routes) == 0 {
		return Table{}, errors.New("routes: no routes defined")
	}
	m := make(map[PageID][]string, len(rf.Routes))
	for k, v := range rf.Routes {
		m[PageID(k)] = v
	}
	return NewTable(m)
}
