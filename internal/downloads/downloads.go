// Package downloads derives the resume/CV download affordances from a page.
package downloads

import (
	"fmt"

	"finitefield.org/portfolio-web/internal/routes"
)

// Kind identifies one of the download controls.
type Kind string

const (
	PDF      Kind = "pdf"
	Word     Kind = "word"
	Markdown Kind = "markdown"
)

// Kinds lists the controls in display order.
var Kinds = []Kind{PDF, Word, Markdown}

var (
	extensions = map[Kind]string{PDF: "pdf", Word: "docx", Markdown: "md"}
	formats    = map[Kind]string{PDF: "PDF", Word: "Word", Markdown: "Markdown"}
)

const (
	resumeDescription = "A concise summary of my experience, skills and recent roles."
	cvDescription     = "The full curriculum vitae: complete work history, projects, publications and education."
)

// Context is the download state for a page.
type Context struct {
	Target      string // artefact basename: "resume" or "cv"
	Label       string
	Description string
}

// For computes the download context for a page. Only the CV page offers the
// CV; every other page, known or not, offers the resume.
func For(id routes.PageID) Context {
	if id == routes.CV {
		return Context{Target: "cv", Label: "CV", Description: cvDescription}
	}
	return Context{Target: "resume", Label: "Resume", Description: resumeDescription}
}

// Extension returns the file extension for k.
func (k Kind) Extension() string { return extensions[k] }

// Href is the relative link of the artefact for k, e.g. "cv.docx".
func (c Context) Href(k Kind) string {
	return c.Target + "." + k.Extension()
}

// ButtonLabel is the visible text of the control for k.
func (c Context) ButtonLabel(k Kind) string {
	return fmt.Sprintf("Download %s (%s)", c.Label, formats[k])
}
