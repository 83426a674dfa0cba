package document

import "fmt"

type GridStyle int

const (
	GridFull GridStyle = iota
	GridHorizontal
	GridNone
)

// Options control how a table is drawn. Zero values select the defaults.
type Options struct {
	Grid       GridStyle
	Font       Font
	HeaderFont Font
	FontSize   float64
	Padding    float64
	LineWidth  float64
}

const (
	defaultFontSize  = 10
	defaultPadding   = 3
	defaultLineWidth = 0.5
)

type row struct {
	cells []string
	align Align
}

// Table has equal-width columns. Body rows stack upward from the bottom edge
// in insertion order, so the first row added is drawn lowest. The header row,
// when present, is always drawn at the top.
type Table struct {
	columns int
	width   float64
	x, y    float64
	header  *row
	rows    []row
	opts    Options
}

func WithEqualColumns(columns int, width float64) *Table {
	return &Table{
		columns: columns,
		width:   width,
		opts:    Options{HeaderFont: HelveticaBold},
	}
}

func (t *Table) SetOptions(o Options) { t.opts = o }

// SetPosition places the table's top-left corner.
func (t *Table) SetPosition(x, y float64) { t.x, t.y = x, y }

func (t *Table) Position() (float64, float64) { return t.x, t.y }
func (t *Table) Width() float64               { return t.width }
func (t *Table) Columns() int                 { return t.columns }

// Len is the number of body rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the body rows in insertion order.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r.cells...)
	}
	return out
}

// AddHeaderRow sets the header. A second call replaces the first.
func (t *Table) AddHeaderRow(cells []string) error {
	if err := t.checkCells(cells); err != nil {
		return err
	}
	t.header = &row{cells: append([]string(nil), cells...), align: AlignCenter}
	return nil
}

func (t *Table) AddRow(cells []string) error {
	return t.AddRowWithAlignment(cells, AlignLeft)
}

func (t *Table) AddRowWithAlignment(cells []string, align Align) error {
	if err := t.checkCells(cells); err != nil {
		return err
	}
	t.rows = append(t.rows, row{cells: append([]string(nil), cells...), align: align})
	return nil
}

func (t *Table) checkCells(cells []string) error {
	if len(cells) != t.columns {
		return fmt.Errorf("%d cells for %d columns: %w", len(cells), t.columns, ErrColumnCount)
	}
	return nil
}

// Height is the rendered height of the header and every body row.
func (t *Table) Height() float64 {
	h := 0.0
	if t.header != nil {
		h += t.rowHeight(*t.header, t.opts.HeaderFont)
	}
	for _, r := range t.rows {
		h += t.rowHeight(r, t.opts.Font)
	}
	return h
}

func (t *Table) fontSize() float64 {
	if t.opts.FontSize > 0 {
		return t.opts.FontSize
	}
	return defaultFontSize
}

func (t *Table) padding() float64 {
	if t.opts.Padding > 0 {
		return t.opts.Padding
	}
	return defaultPadding
}

func (t *Table) columnWidth() float64 {
	if t.columns == 0 {
		return 0
	}
	return t.width / float64(t.columns)
}

func (t *Table) rowHeight(r row, font Font) float64 {
	lines := 1
	inner := t.columnWidth() - 2*t.padding()
	for _, c := range r.cells {
		if n := len(measure.wrap(c, font, t.fontSize(), inner)); n > lines {
			lines = n
		}
	}
	return float64(lines)*t.fontSize()*LineSpacing + 2*t.padding()
}

// layout converts the table into drawing ops at its position.
func (t *Table) layout() ([]op, error) {
	if t.columns <= 0 {
		return nil, fmt.Errorf("table without columns: %w", ErrColumnCount)
	}

	var (
		ops    []op
		top    = t.y
		bottom = t.y + t.Height()
		bounds []float64 // y of every row boundary, top to bottom
	)

	if t.header != nil {
		h := t.rowHeight(*t.header, t.opts.HeaderFont)
		ops = append(ops, t.cellOps(*t.header, t.opts.HeaderFont, top, h)...)
		bounds = append(bounds, top, top+h)
	}

	y := bottom
	for _, r := range t.rows {
		h := t.rowHeight(r, t.opts.Font)
		y -= h
		ops = append(ops, t.cellOps(r, t.opts.Font, y, h)...)
		bounds = append(bounds, y, y+h)
	}

	return append(ops, t.gridOps(bounds, top, bottom)...), nil
}

func (t *Table) cellOps(r row, font Font, rowTop, rowHeight float64) []op {
	var (
		ops   []op
		size  = t.fontSize()
		pad   = t.padding()
		colW  = t.columnWidth()
		lineH = size * LineSpacing
	)
	for i, c := range r.cells {
		lines := measure.wrap(c, font, size, colW-2*pad)
		// center the block of lines inside the row
		y := rowTop + (rowHeight-float64(len(lines))*lineH)/2
		for _, l := range lines {
			if l != "" {
				ops = append(ops, op{
					kind:  opText,
					x:     t.x + float64(i)*colW + pad,
					y:     y,
					w:     colW - 2*pad,
					h:     lineH,
					text:  l,
					font:  font,
					size:  size,
					align: r.align,
				})
			}
			y += lineH
		}
	}
	return ops
}

func (t *Table) gridOps(bounds []float64, top, bottom float64) []op {
	if t.opts.Grid == GridNone {
		return nil
	}
	lw := t.opts.LineWidth
	if lw <= 0 {
		lw = defaultLineWidth
	}

	var ops []op
	seen := make(map[float64]bool, len(bounds))
	for _, y := range bounds {
		if seen[y] {
			continue
		}
		seen[y] = true
		ops = append(ops, op{kind: opLine, x: t.x, y: y, x2: t.x + t.width, y2: y, lineWidth: lw})
	}

	if t.opts.Grid == GridFull && bottom > top {
		for i := 0; i <= t.columns; i++ {
			x := t.x + float64(i)*t.columnWidth()
			ops = append(ops, op{kind: opLine, x: x, y: top, x2: x, y2: bottom, lineWidth: lw})
		}
	}
	return ops
}
