package document

import "fmt"

// TextFlow writes wrapped lines downward from a cursor. Lines are aligned
// within the flow's width, which starts at the page width.
type TextFlow struct {
	pageHeight float64
	x, y       float64
	width      float64
	font       Font
	size       float64
	align      Align
	ops        []op
}

func (p *Page) TextFlow() *TextFlow {
	return &TextFlow{
		pageHeight: p.height,
		width:      p.width,
		font:       Helvetica,
		size:       defaultFontSize,
	}
}

// At moves the cursor. Lines written afterwards are aligned within
// [x, page width - x].
func (f *TextFlow) At(x, y float64) *TextFlow {
	f.width += 2*f.x - 2*x
	f.x, f.y = x, y
	return f
}

func (f *TextFlow) SetFont(font Font, size float64) *TextFlow {
	f.font, f.size = font, size
	return f
}

func (f *TextFlow) SetAlignment(a Align) *TextFlow {
	f.align = a
	return f
}

// Cursor is where the next line would start.
func (f *TextFlow) Cursor() (float64, float64) { return f.x, f.y }

func (f *TextFlow) FontSize() float64 { return f.size }

// WriteWrapped writes text, breaking it into as many lines as needed.
func (f *TextFlow) WriteWrapped(text string) error {
	lineH := f.size * LineSpacing
	for _, l := range measure.wrap(text, f.font, f.size, f.width) {
		if f.y+lineH > f.pageHeight {
			return fmt.Errorf("text flow %q: %w", text, ErrOffPage)
		}
		f.ops = append(f.ops, op{
			kind:  opText,
			x:     f.x,
			y:     f.y,
			w:     f.width,
			h:     lineH,
			text:  l,
			font:  f.font,
			size:  f.size,
			align: f.align,
		})
		f.y += lineH
	}
	return nil
}

// WriteParagraph writes text followed by half a line of spacing.
func (f *TextFlow) WriteParagraph(text string) error {
	if err := f.WriteWrapped(text); err != nil {
		return err
	}
	f.y += f.size * LineSpacing / 2
	return nil
}
