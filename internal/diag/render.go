package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/thrushlang/thrushc-sub009/internal/source"
)

// RenderOpts controls fault rendering.
type RenderOpts struct {
	Color bool
}

// Render writes f as one line: `path:line:col: fatal: message [origin]`.
// The column counts display cells, so wide runes advance it by two.
func Render(w io.Writer, f *Fault, fs *source.FileSet, opts RenderOpts) error {
	loc := Location(f.Span, fs)

	fatal := "fatal:"
	origin := "[" + f.Origin + "]"
	if opts.Color {
		bold := color.New(color.Bold)
		bold.EnableColor()
		red := color.New(color.FgRed, color.Bold)
		red.EnableColor()
		faint := color.New(color.Faint)
		faint.EnableColor()
		loc = bold.Sprint(loc)
		fatal = red.Sprint(fatal)
		origin = faint.Sprint(origin)
	}
	_, err := fmt.Fprintf(w, "%s: %s %s %s\n", loc, fatal, f.Msg, origin)
	return err
}

// Location formats the start of span as path:line:col.
func Location(span source.Span, fs *source.FileSet) string {
	if fs == nil {
		return fmt.Sprintf("<unknown>:%d", span.Start)
	}
	file := fs.Get(span.File)
	if file == nil {
		return fmt.Sprintf("<unknown>:%d", span.Start)
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", file.Path, start.Line, displayColumn(file.Line(start.Line), start.Col))
}

// displayColumn converts a 1-based byte column into a 1-based display column.
func displayColumn(line string, col uint32) uint32 {
	n := int(col) - 1
	if n <= 0 || n > len(line) {
		return col
	}
	return uint32(runewidth.StringWidth(line[:n])) + 1
}
