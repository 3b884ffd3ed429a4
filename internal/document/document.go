// Package document lays out fetched man pages on fixed-width pages (title
// page, table of contents, one section per package) and serializes the
// result as PDF, plain text or HTML.
package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/canonical/manbook/internal/lister"
	"github.com/canonical/manbook/internal/manpage"
)

type LineKind int

const (
	LineBody LineKind = iota
	LineTitle
	LineHeading
	LineRule
	LineTOC
)

// Line is one row of a page. Target is the section ID a heading anchors
// or a table of contents row links to.
type Line struct {
	Kind   LineKind
	Text   string
	Target string
}

type PageKind int

const (
	PageTitle PageKind = iota
	PageContents
	PageSection
)

type Page struct {
	Number  int
	Kind    PageKind
	Running string
	Lines   []Line
}

// Section is one package in listing order. Page is the page its heading
// is printed on.
type Section struct {
	ID      string
	Package lister.Package
	Entry   manpage.Entry
	Page    int
}

type Summary struct {
	Total   int
	Found   int
	Missing int
	Errors  int
}

type Document struct {
	Title     string
	Generated time.Time
	Layout    Layout
	Sections  []Section
	Pages     []Page
	Summary   Summary
}

// Layout is the page geometry in character cells. Height counts body
// lines; running head and footer are added by the writers.
type Layout struct {
	Width               int
	Height              int
	CompactPlaceholders bool
}

func DefaultLayout() Layout {
	return Layout{Width: 96, Height: 60, CompactPlaceholders: true}
}

const (
	minWidth  = 40
	minHeight = 10
)

type Builder struct {
	Title  string
	Layout Layout
}

func NewBuilder(title string, layout Layout) *Builder {
	layout.Width = max(layout.Width, minWidth)
	layout.Height = max(layout.Height, minHeight)
	return &Builder{Title: title, Layout: layout}
}

// Build lays out one section per listed package, in listing order. A
// package without a result gets an error placeholder, so every listed
// package appears exactly once.
func (b *Builder) Build(packages []lister.Package, results map[string]manpage.Entry, generated time.Time) *Document {
	doc := &Document{
		Title:     b.Title,
		Generated: generated,
		Layout:    b.Layout,
	}

	seen := map[string]bool{}
	ids := map[string]bool{}
	for i, pkg := range packages {
		if seen[pkg.Name] {
			continue
		}
		seen[pkg.Name] = true

		entry, ok := results[pkg.Name]
		if !ok {
			entry = manpage.Failed(pkg.Name, "not fetched")
		}
		switch entry.Status {
		case manpage.StatusFound:
			doc.Summary.Found++
		case manpage.StatusMissing:
			doc.Summary.Missing++
		default:
			doc.Summary.Errors++
		}
		doc.Sections = append(doc.Sections, Section{
			ID:      sectionID(pkg.Name, i, ids),
			Package: pkg,
			Entry:   entry,
		})
	}
	doc.Summary.Total = len(doc.Sections)

	tocPages := b.contentsPageCount(len(doc.Sections))
	sectionPages := b.paginateSections(doc, 2+tocPages)

	doc.Pages = append(doc.Pages, b.titlePage(doc))
	doc.Pages = append(doc.Pages, b.contentsPages(doc, tocPages)...)
	doc.Pages = append(doc.Pages, sectionPages...)
	return doc
}

func (b *Builder) rowsPerContentsPage() int { return b.Layout.Height - 2 }

func (b *Builder) contentsPageCount(sections int) int {
	rows := b.rowsPerContentsPage()
	return max(1, (sections+rows-1)/rows)
}

func (b *Builder) titlePage(doc *Document) Page {
	w := b.Layout.Width
	page := Page{Number: 1, Kind: PageTitle}
	for range b.Layout.Height / 3 {
		page.Lines = append(page.Lines, Line{})
	}
	page.Lines = append(page.Lines,
		Line{Kind: LineTitle, Text: center(doc.Title, w)},
		Line{},
		Line{Text: center(fmt.Sprintf("Manual pages of %d packages", doc.Summary.Total), w)},
		Line{Text: center("Generated "+doc.Generated.UTC().Format("2006-01-02"), w)},
		Line{},
		Line{Text: center(fmt.Sprintf("Found: %d  Missing: %d  Errors: %d",
			doc.Summary.Found, doc.Summary.Missing, doc.Summary.Errors), w)},
	)
	return page
}

func (b *Builder) contentsPages(doc *Document, count int) []Page {
	rows := b.rowsPerContentsPage()
	pages := make([]Page, 0, count)
	for i := range count {
		heading := "Contents"
		if i > 0 {
			heading = "Contents (continued)"
		}
		page := Page{
			Number:  2 + i,
			Kind:    PageContents,
			Running: doc.Title,
			Lines:   []Line{{Kind: LineHeading, Text: heading}, {}},
		}
		end := min((i+1)*rows, len(doc.Sections))
		for _, s := range doc.Sections[i*rows : end] {
			page.Lines = append(page.Lines, Line{
				Kind:   LineTOC,
				Text:   contentsRow(s, b.Layout.Width),
				Target: s.ID,
			})
		}
		pages = append(pages, page)
	}
	return pages
}

func contentsRow(s Section, width int) string {
	right := fmt.Sprintf("%d", s.Page)
	switch s.Entry.Status {
	case manpage.StatusFound:
		right = "found  " + right
	case manpage.StatusMissing:
		right = "no man page  " + right
	case manpage.StatusError:
		right = "error  " + right
	}
	return leader(headingText(s.Package), right, width)
}

func headingText(pkg lister.Package) string {
	if pkg.Version == "" {
		return pkg.Name
	}
	return pkg.Name + " " + pkg.Version
}

func placeholderText(e manpage.Entry) string {
	if e.Status == manpage.StatusMissing {
		return "No man page available."
	}
	return "Man page could not be retrieved: " + e.Reason
}

func (b *Builder) sectionLines(s Section) []Line {
	w := b.Layout.Width
	heading := runewidth.Truncate(headingText(s.Package), w, "...")
	lines := []Line{
		{Kind: LineHeading, Text: heading, Target: s.ID},
		{Kind: LineRule, Text: strings.Repeat("=", runewidth.StringWidth(heading))},
		{},
	}
	if s.Entry.Status != manpage.StatusFound {
		for _, l := range wrapLine(placeholderText(s.Entry), w) {
			lines = append(lines, Line{Text: l})
		}
		return append(lines, Line{})
	}
	for _, raw := range strings.Split(s.Entry.Text, "\n") {
		for _, l := range wrapLine(raw, w) {
			lines = append(lines, Line{Text: l})
		}
	}
	return lines
}

// paginateSections assigns sections to pages starting at firstPage. Found
// sections always start a new page; placeholder sections share pages when
// CompactPlaceholders is set.
func (b *Builder) paginateSections(doc *Document, firstPage int) []Page {
	h := b.Layout.Height
	var pages []Page
	var cur *Page

	flush := func() {
		if cur != nil && len(cur.Lines) > 0 {
			pages = append(pages, *cur)
		}
		cur = nil
	}
	open := func(running string) {
		cur = &Page{
			Number:  firstPage + len(pages),
			Kind:    PageSection,
			Running: doc.Title + ": " + running,
		}
	}

	forceBreak := false
	for i := range doc.Sections {
		s := &doc.Sections[i]
		lines := b.sectionLines(*s)
		compact := b.Layout.CompactPlaceholders && s.Entry.Status != manpage.StatusFound

		if !compact || forceBreak || (cur != nil && len(cur.Lines)+len(lines) > h) {
			flush()
		}
		if cur == nil {
			open(s.Package.Name)
		}
		s.Page = cur.Number

		for _, line := range lines {
			if len(cur.Lines) == h {
				flush()
				open(s.Package.Name)
			}
			cur.Lines = append(cur.Lines, line)
		}
		forceBreak = !compact
	}
	flush()
	return pages
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(text string) string {
	slug := strings.ToLower(text)
	slug = nonSlug.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func sectionID(name string, i int, seen map[string]bool) string {
	id := "pkg-" + slugify(name)
	if id == "pkg-" {
		id = fmt.Sprintf("pkg-%d", i)
	}
	base := id
	for n := i; seen[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	seen[id] = true
	return id
}
