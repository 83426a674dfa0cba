package document

import (
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
)

// LineSpacing is the line height as a multiple of the font size.
const LineSpacing = 1.2

// fontMetrics measures text with the PDF core font tables. fpdf keeps the
// current font as state, so calls are serialized.
type fontMetrics struct {
	mu  sync.Mutex
	pdf *fpdf.Fpdf
	tr  func(string) string
}

var measure = newFontMetrics()

func newFontMetrics() *fontMetrics {
	pdf := fpdf.New("P", "pt", "A4", "")
	return &fontMetrics{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *fontMetrics) width(text string, font Font, size float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont("Helvetica", font.style(), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

// wrap breaks text at spaces into lines no wider than width. A single word
// wider than width gets a line of its own.
func (m *fontMetrics) wrap(text string, font Font, size, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont("Helvetica", font.style(), size)

	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		candidate := cur + " " + w
		if m.pdf.GetStringWidth(m.tr(candidate)) <= width {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}
