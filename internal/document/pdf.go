package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

var alignStr = map[Align]string{
	AlignLeft:   "LM",
	AlignCenter: "CM",
	AlignRight:  "RM",
}

// Write serializes the document as PDF.
func (d *Document) Write(w io.Writer) error {
	if len(d.pages) == 0 {
		return errors.New("document has no pages")
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(d.title, true)
	pdf.SetCreator("lifsheet", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, p := range d.pages {
		orientation := "P"
		if p.width > p.height {
			orientation = "L"
		}
		pdf.AddPageFormat(orientation, fpdf.SizeType{Wd: p.width, Ht: p.height})
		for _, o := range p.ops {
			switch o.kind {
			case opText:
				pdf.SetFont("Helvetica", o.font.style(), o.size)
				pdf.SetXY(o.x, o.y)
				pdf.CellFormat(o.w, o.h, tr(o.text), "", 0, alignStr[o.align], false, 0, "")
			case opLine:
				pdf.SetLineWidth(o.lineWidth)
				pdf.Line(o.x, o.y, o.x2, o.y2)
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("compose pdf: %w", err)
	}
	return pdf.Output(w)
}

// Bytes returns the serialized PDF.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the PDF to path, creating parent directories.
func (d *Document) Save(path string) error {
	b, err := d.Bytes()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
