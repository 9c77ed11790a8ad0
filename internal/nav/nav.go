package nav

import (
	"strings"

	"finitefield.org/portfolio-web/internal/routes"
)

// Item represents a top-level navigation item.
type Item struct {
	Page  routes.PageID // value of the link's data-page attribute
	Label string
}

// RenderedItem is a view model for a nav link.
type RenderedItem struct {
	Page   routes.PageID
	Href   string
	Label  string
	Active bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Page: routes.Home, Label: "Resume"},
	{Page: routes.CV, Label: "CV"},
	{Page: routes.Projects, Label: "Projects"},
	{Page: routes.Articles, Label: "Articles"},
	{Page: routes.Tutorials, Label: "Tutorials"},
	{Page: routes.Blog, Label: "Blog"},
	{Page: routes.About, Label: "About"},
}

// Normalize maps aliases onto the page whose nav entry represents them.
func Normalize(id routes.PageID) routes.PageID {
	if id == routes.Resume {
		return routes.Home
	}
	return id
}

// IsActive reports whether the nav link for itemPage is the active one when
// current is displayed. Only current is normalised, so a link to an alias is
// never active and at most one of home and resume lights up.
func IsActive(itemPage, current routes.PageID) bool {
	return itemPage == Normalize(current)
}

// Build renders navigation items with active state given the current page.
// Every call starts from a clean state: only the matching item is active.
func Build(current routes.PageID) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Page:   it.Page,
			Href:   "#" + string(it.Page),
			Label:  it.Label,
			Active: IsActive(it.Page, current),
		})
	}
	return items
}

// MatchPath is the on-load highlighter: a link is active when the location
// path contains its href.
func MatchPath(currentPath, href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}
	return strings.Contains(currentPath, href)
}

// Summary renders items as a one-line menu with the active entry bracketed.
func Summary(items []RenderedItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it.Active {
			parts = append(parts, "["+it.Label+"]")
			continue
		}
		parts = append(parts, it.Label)
	}
	return strings.Join(parts, " ")
}
