package document

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// wrapLine breaks line into rows no wider than width cells. Words are
// kept whole where possible; continuation rows keep the line's
// indentation (capped at half the width).
func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	body := strings.TrimLeft(line, " ")
	indentWidth := min(len(line)-len(body), width/2)
	indent := strings.Repeat(" ", indentWidth)
	avail := width - indentWidth

	ww := wordwrap.NewWriter(avail)
	// Option names like --color must not be split at their hyphens.
	ww.Breakpoints = nil
	_, _ = ww.Write([]byte(body))
	_ = ww.Close()
	wrapped := wrap.String(ww.String(), avail)

	var out []string
	for _, row := range strings.Split(wrapped, "\n") {
		for _, piece := range hardWrap(row, avail) {
			out = append(out, strings.TrimRight(indent+piece, " "))
		}
	}
	return out
}

// hardWrap splits s at exactly width cells. It only matters for runes
// wider than one cell that the word wrapper cannot place.
func hardWrap(s string, width int) []string {
	if runewidth.StringWidth(s) <= width {
		return []string{s}
	}
	var out []string
	var b strings.Builder
	cells := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if cells+rw > width && cells > 0 {
			out = append(out, b.String())
			b.Reset()
			cells = 0
		}
		b.WriteRune(r)
		cells += rw
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// center pads s on the left so it sits in the middle of width cells.
func center(s string, width int) string {
	s = runewidth.Truncate(strings.TrimSpace(s), width, "...")
	pad := (width - runewidth.StringWidth(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// leader joins left and right with a dotted leader filling width cells.
// Left is truncated when both would not fit.
func leader(left, right string, width int) string {
	rightWidth := runewidth.StringWidth(right)
	maxLeft := width - rightWidth - 4
	left = runewidth.Truncate(left, max(maxLeft, 1), "...")
	dots := width - runewidth.StringWidth(left) - rightWidth - 2
	return left + " " + strings.Repeat(".", max(dots, 1)) + " " + right
}
