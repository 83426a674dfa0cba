// Package document composes positioned text and tables into pages, writes
// them as PDF and rasterizes them.
//
// Coordinates are points with the origin at the top-left corner of the page.
package document

import (
	"errors"
	"fmt"
)

// A4 in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

var (
	ErrColumnCount = errors.New("cell count does not match column count")
	ErrOffPage     = errors.New("content placed outside the page")
)

type Font int

const (
	Helvetica Font = iota
	HelveticaBold
)

func (f Font) style() string {
	if f == HelveticaBold {
		return "B"
	}
	return ""
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type opKind int

const (
	opText opKind = iota
	opLine
)

// op is one drawing instruction. Text ops draw Text inside the box
// (X, Y, W, H), vertically centered. Line ops draw from (X, Y) to (X2, Y2).
type op struct {
	kind      opKind
	x, y      float64
	w, h      float64
	x2, y2    float64
	text      string
	font      Font
	size      float64
	align     Align
	lineWidth float64
}

// Page is a fixed-size canvas. Content is copied in when added, so later
// changes to a table or text flow do not affect the page.
type Page struct {
	width, height float64
	ops           []op
}

func NewPage(width, height float64) *Page {
	return &Page{width: width, height: height}
}

func A4() *Page { return NewPage(A4Width, A4Height) }

func (p *Page) Width() float64  { return p.width }
func (p *Page) Height() float64 { return p.height }

// Empty reports whether nothing was drawn on the page.
func (p *Page) Empty() bool { return len(p.ops) == 0 }

// Texts returns every text string drawn on the page, in drawing order.
func (p *Page) Texts() []string {
	var out []string
	for _, o := range p.ops {
		if o.kind == opText {
			out = append(out, o.text)
		}
	}
	return out
}

// AddTable draws t at its current position.
func (p *Page) AddTable(t *Table) error {
	ops, err := t.layout()
	if err != nil {
		return err
	}
	for _, o := range ops {
		if err := p.checkBounds(o); err != nil {
			return fmt.Errorf("table at (%.1f, %.1f): %w", t.x, t.y, err)
		}
	}
	p.ops = append(p.ops, ops...)
	return nil
}

// AddTextFlow draws every line written to f.
func (p *Page) AddTextFlow(f *TextFlow) {
	p.ops = append(p.ops, f.ops...)
}

// WriteLine draws a single left-aligned line whose top is at y and returns
// the font size, which callers use as the line advance.
func (p *Page) WriteLine(x, y float64, font Font, size float64, text string) (float64, error) {
	o := op{
		kind:  opText,
		x:     x,
		y:     y,
		w:     measure.width(text, font, size),
		h:     size,
		text:  text,
		font:  font,
		size:  size,
		align: AlignLeft,
	}
	if err := p.checkBounds(o); err != nil {
		return 0, fmt.Errorf("line %q: %w", text, err)
	}
	p.ops = append(p.ops, o)
	return size, nil
}

func (p *Page) checkBounds(o op) error {
	const eps = 0.01
	x2, y2 := o.x+o.w, o.y+o.h
	if o.kind == opLine {
		x2, y2 = o.x2, o.y2
	}
	if o.x < -eps || o.y < -eps || x2 > p.width+eps || y2 > p.height+eps {
		return ErrOffPage
	}
	return nil
}

// Document is an ordered list of pages with a title.
type Document struct {
	title string
	pages []*Page
}

func New() *Document { return &Document{} }

func (d *Document) SetTitle(title string) { d.title = title }
func (d *Document) Title() string         { return d.title }
func (d *Document) AddPage(p *Page)       { d.pages = append(d.pages, p) }
func (d *Document) Pages() []*Page        { return d.pages }
