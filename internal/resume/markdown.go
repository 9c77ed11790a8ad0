package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Targets are the documents rendered by "all".
var Targets = []string{"resume", "cv"}

// ExpandTarget maps a target flag value to the documents it names.
func ExpandTarget(target string) ([]string, error) {
	switch target {
	case "all":
		return Targets, nil
	case "resume", "cv":
		return []string{target}, nil
	}
	return nil, fmt.Errorf("unknown target %q (want resume, cv or all)", target)
}

// Markdown renders resolved blocks. Stripe and unknown blocks produce nothing.
func Markdown(blocks []Block) string {
	var out []string
	add := func(lines ...string) { out = append(out, lines...) }
	heading := func(title string) {
		if title != "" {
			add("## " + title)
		}
	}

	for _, b := range blocks {
		c := b.Config
		if c.PageBreakBefore {
			add("\n---\n")
		}
		switch b.Type {
		case HeaderBlock:
			add("# " + c.Title)
			if c.Subtitle != "" {
				add("**" + c.Subtitle + "**\n")
			}
		case SectionTitleBlock:
			add("## " + c.Content)
		case CompoundTextBlock:
			parts := make([]string, 0, len(c.Items))
			for _, it := range c.Items {
				if it.Link != "" {
					parts = append(parts, "["+it.Text+"]("+it.Link+")")
				} else {
					parts = append(parts, it.Text)
				}
			}
			add(strings.Join(parts, " ") + "\n")
		case TextBlock:
			if c.Style == "shaded" {
				for _, line := range strings.Split(c.Content, "\n") {
					if strings.TrimSpace(line) != "" {
						add("> " + line)
					}
				}
				add("")
			} else {
				add(c.Content + "\n")
			}
		case GridBlock:
			heading(c.Title)
			for _, it := range c.Items {
				if it.Header != "" {
					add("### " + it.Header)
				}
				for _, line := range it.Content {
					add("- " + line)
				}
			}
			add("")
		case ListBlock:
			heading(c.Title)
			for _, it := range c.Items {
				var head string
				if it.LeftText != "" {
					head += "**" + it.LeftText + "**"
				}
				if it.LeftText != "" && it.RightText != "" {
					head += " | "
				}
				if it.RightText != "" {
					head += "*" + it.RightText + "*"
				}
				if head != "" {
					add("\n" + head)
				}
				if it.SubText != "" {
					add("_" + it.SubText + "_")
				}
				for _, d := range it.Details {
					add("- " + d)
				}
			}
			add("")
		case PlainListBlock:
			heading(c.Title)
			for _, it := range c.Items {
				add("- " + it.Text)
			}
			add("")
		case CompactListBlock:
			heading(c.Title)
			for _, it := range c.Items {
				add("- " + strings.Join(it.Content, " ") + " (*" + it.Date + "*)")
			}
			add("")
		case TextGridBlock:
			heading(c.Title)
			for _, it := range c.Items {
				add(it.Content...)
				add("")
			}
			add("")
		case ProjectBlock:
			if c.Title != "" {
				add("### " + c.Title)
			}
			if len(c.Tags) > 0 {
				tags := make([]string, len(c.Tags))
				for i, t := range c.Tags {
					tags[i] = "`" + t + "`"
				}
				add(strings.Join(tags, " ") + "\n")
			}
			for _, it := range c.Items {
				add("- " + it.Text)
			}
			add("")
		}
	}
	return strings.Join(out, "\n")
}

// Generator renders targets from the layouts and store in a data directory.
type Generator struct {
	dataDir string
	logger  *zap.Logger
}

// NewGenerator returns a Generator reading from dataDir.
func NewGenerator(dataDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{dataDir: dataDir, logger: logger}
}

// Render returns the markdown for target.
func (g *Generator) Render(target string) (string, error) {
	store, err := LoadStore(filepath.Join(g.dataDir, StoreFile))
	if err != nil {
		return "", err
	}
	layout, err := LoadLayout(LayoutPath(g.dataDir, target))
	if err != nil {
		return "", err
	}
	blocks, err := Resolve(layout, store, g.logger.With(zap.String("target", target)))
	if err != nil {
		return "", err
	}
	return Markdown(blocks), nil
}

// WriteFile renders target to <outDir>/<target>.md and returns the path.
func (g *Generator) WriteFile(target, outDir string) (string, error) {
	md, err := g.Render(target)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, target+".md")
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("resume: write %s: %w", path, err)
	}
	g.logger.Info("markdown rendered", zap.String("target", target), zap.String("path", path))
	return path, nil
}
