// Package view is the rendering surface the content router writes to.
package view

import (
	"finitefield.org/portfolio-web/internal/downloads"
	"finitefield.org/portfolio-web/internal/fragments"
	"finitefield.org/portfolio-web/internal/routes"
)

// ErrorMessage is shown in place of the content when a page fails to load.
const ErrorMessage = "Error loading content."

// View is the narrow set of page mutations the router performs.
type View interface {
	// ResetContent empties the content region and scrolls it to the top.
	ResetContent()
	// AppendFragment adds frag as a new block at the end of the content region.
	AppendFragment(frag fragments.Fragment)
	// ShowError replaces the content region with a single error block.
	ShowError(message string)
	// SetActiveNav clears every nav link and marks the one for page.
	SetActiveNav(page routes.PageID)
	// SetDownloads points the download controls at the artefacts of dl.
	// Controls missing from the page are skipped.
	SetDownloads(dl downloads.Context)
}
