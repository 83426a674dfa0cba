// Package report runs one LIF file through parsing, layout and PDF
// serialization.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifsheet/internal/discrepancy"
	"lifsheet/internal/document"
	"lifsheet/internal/lif"
	"lifsheet/internal/model"
	"lifsheet/internal/timesheet"
)

type Options struct {
	Threshold float64
	Scale     float64
}

// Report is a finished timesheet for one file.
type Report struct {
	ID        uuid.UUID
	Source    string
	Race      *model.RaceEvent
	Sheet     *timesheet.Sheet
	PDF       []byte
	Generated time.Time
	scale     float64
}

type Builder struct {
	engine *timesheet.Engine
	scale  float64
}

func NewBuilder(opts Options) *Builder {
	scale := opts.Scale
	if scale <= 0 {
		scale = document.DefaultScale
	}
	return &Builder{
		engine: timesheet.New(discrepancy.NewDetector(opts.Threshold)),
		scale:  scale,
	}
}

// FromBytes decodes and parses raw file content, then builds the report.
func (b *Builder) FromBytes(raw []byte, name string) (*Report, error) {
	race, err := lif.ParseBytes(raw, name)
	if err != nil {
		return nil, err
	}
	return b.Build(race, name)
}

func (b *Builder) Build(race *model.RaceEvent, name string) (*Report, error) {
	sheet, err := b.engine.Compose(race)
	if err != nil {
		return nil, err
	}
	pdf, err := sheet.Document.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", name, err)
	}
	return &Report{
		ID:        uuid.New(),
		Source:    name,
		Race:      race,
		Sheet:     sheet,
		PDF:       pdf,
		Generated: time.Now().UTC(),
		scale:     b.scale,
	}, nil
}

func (r *Report) Flags() []discrepancy.Flag { return r.Sheet.Flags }

func (r *Report) PageCount() int { return len(r.Sheet.Document.Pages()) }

// FileName is where the PDF goes inside an output directory. It is named
// after the event code, or the source file when the code gives no usable
// name, and never contains a path separator.
func (r *Report) FileName() string {
	if name := baseName(r.Race.Event.EventCode); name != "" {
		return name + ".pdf"
	}
	src := filepath.Base(r.Source)
	if name := baseName(strings.TrimSuffix(src, filepath.Ext(src))); name != "" {
		return name + ".pdf"
	}
	return r.ID.String() + ".pdf"
}

// baseName keeps the last path element of s, or "" when nothing usable is
// left.
func baseName(s string) string {
	s = filepath.Base(strings.ReplaceAll(strings.TrimSpace(s), `\`, "/"))
	switch s {
	case ".", "..", "/":
		return ""
	}
	return s
}

// Rasterize renders every page at the builder's scale.
func (r *Report) Rasterize() (*document.Raster, error) {
	return document.Rasterize(r.Sheet.Document, r.scale)
}

// RenderPage renders a single page, 0-based.
func (r *Report) RenderPage(i int) (*document.Raster, error) {
	pages := r.Sheet.Document.Pages()
	if i < 0 || i >= len(pages) {
		return nil, &document.RenderError{Page: i, Err: fmt.Errorf("page out of range, have %d", len(pages))}
	}
	img, err := document.RenderPage(pages[i], r.scale)
	if err != nil {
		return nil, &document.RenderError{Page: i, Err: err}
	}
	return &document.Raster{Pages: [][]byte{img.Pix}, Width: img.Rect.Dx(), Height: img.Rect.Dy()}, nil
}
