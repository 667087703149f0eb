package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

type paint func(format string, a ...any) string

// printer writes command output, in color when it goes to a terminal.
type printer struct {
	w       io.Writer
	plain   paint
	added   paint
	removed paint
	ok      paint
	failed  paint
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w, plain: fmt.Sprintf, added: fmt.Sprintf, removed: fmt.Sprintf, ok: fmt.Sprintf, failed: fmt.Sprintf}
	f, isFile := w.(*os.File)
	if !isFile || !isatty.IsTerminal(f.Fd()) {
		return p
	}
	p.added = color.New(color.FgGreen).SprintfFunc()
	p.removed = color.New(color.FgRed).SprintfFunc()
	p.ok = color.New(color.FgGreen).SprintfFunc()
	p.failed = color.New(color.FgRed, color.Bold).SprintfFunc()
	return p
}

func (p *printer) println(c paint, s string) {
	fmt.Fprintln(p.w, c("%s", s))
}

// diff prints the lines that differ between before and after, in the
// manner of a unified diff without hunk headers.
func (p *printer) diff(before, after string) {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		mark, c := " ", p.plain
		switch d.Type {
		case diffpatch.DiffInsert:
			mark, c = "+", p.added
		case diffpatch.DiffDelete:
			mark, c = "-", p.removed
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			p.println(c, mark+strings.TrimSuffix(line, "\n"))
		}
	}
}
