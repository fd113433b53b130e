package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// printer writes command output. On a terminal answers are rendered as
// markdown and headings are colored; otherwise output is plain text.
type printer struct {
	out      io.Writer
	profile  termenv.Profile
	markdown func(string) (string, error)
}

func newPrinter(out io.Writer) *printer {
	p := &printer{out: out, profile: termenv.Ascii}

	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p
	}
	p.profile = termenv.ColorProfile()
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
		p.markdown = r.Render
	}
	return p
}

func (p *printer) heading(s string) {
	fmt.Fprintln(p.out, p.profile.String(s).Foreground(p.profile.Color("#818cf8")).Bold())
}

func (p *printer) warn(s string) {
	fmt.Fprintln(p.out, p.profile.String(s).Foreground(p.profile.Color("#fb7185")))
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// answer prints a model answer, rendering markdown when possible.
func (p *printer) answer(s string) {
	if p.markdown != nil {
		if rendered, err := p.markdown(s); err == nil {
			fmt.Fprint(p.out, rendered)
			return
		}
	}
	fmt.Fprintln(p.out, s)
}
