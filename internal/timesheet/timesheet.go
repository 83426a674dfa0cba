// Package timesheet lays out a parsed race as a paginated results report.
package timesheet

import (
	"fmt"
	"slices"
	"strconv"

	"lifsheet/internal/discrepancy"
	"lifsheet/internal/document"
	"lifsheet/internal/model"
	"lifsheet/internal/results"
)

const (
	// SideMargin is the share of the page width left empty, split evenly
	// between both sides of every table.
	SideMargin = 0.05
	// TopMargin is the share of the page height above the title.
	TopMargin = 0.05
	// BottomBudget is the share of the page height the transponder table may
	// not enter.
	BottomBudget = 0.10

	sectionGap = 20.0
	fontSize   = 10.0
)

// LayoutError wraps any document failure during report composition.
type LayoutError struct {
	Stage string
	Err   error
}

func (e *LayoutError) Error() string { return fmt.Sprintf("layout %s: %v", e.Stage, e.Err) }
func (e *LayoutError) Unwrap() error { return e.Err }

func layoutErr(stage string, err error) error {
	return &LayoutError{Stage: stage, Err: err}
}

// Sheet is a composed report together with how the transponder matrix was
// split across pages.
type Sheet struct {
	Document *document.Document
	Flags    []discrepancy.Flag
	// Rows is the full transponder matrix in split order.
	Rows [][]string
	// MatrixPage is the index of the page carrying the matrix header.
	MatrixPage int
	// Capacity is how many matrix rows fit on MatrixPage.
	Capacity int
	// FirstPage and Overflow hold the rows in the order they were added to
	// their tables; Overflow has one entry per extra page.
	FirstPage [][]string
	Overflow  [][][]string
	// TableTop is where the matrix table starts on MatrixPage.
	TableTop float64
}

type Engine struct {
	detector discrepancy.Detector
}

func New(detector discrepancy.Detector) *Engine {
	return &Engine{detector: detector}
}

// Generate composes the report for race.
func (e *Engine) Generate(race *model.RaceEvent) (*document.Document, error) {
	s, err := e.Compose(race)
	if err != nil {
		return nil, err
	}
	return s.Document, nil
}

// cursor tracks the page being filled and the next free y on it.
type cursor struct {
	doc  *document.Document
	page *document.Page
	y    float64
}

func (c *cursor) newPage() {
	c.page = document.A4()
	c.doc.AddPage(c.page)
	c.y = c.top()
}

func (c *cursor) top() float64 { return c.page.Height() * TopMargin }

// bottom is the lowest y the results and flags may reach.
func (c *cursor) bottom() float64 { return c.page.Height() * (1 - TopMargin) }

func (c *cursor) atTop() bool { return c.y <= c.top() }

// Compose builds the report and reports its pagination. Results rows and flag
// lines that do not fit continue on new pages. On error nothing usable is
// returned.
func (e *Engine) Compose(race *model.RaceEvent) (*Sheet, error) {
	doc := document.New()
	doc.SetTitle(race.Event.EventName)

	cur := &cursor{doc: doc}
	cur.newPage()
	width, height := cur.page.Width(), cur.page.Height()
	tableWidth := width * (1 - SideMargin)
	tableX := width * SideMargin / 2

	// Title
	flow := cur.page.TextFlow().
		At(0, height*TopMargin).
		SetFont(document.HelveticaBold, fontSize).
		SetAlignment(document.AlignCenter)
	if err := flow.WriteWrapped(race.Event.EventCode + " - Results"); err != nil {
		return nil, layoutErr("title", err)
	}
	if err := flow.WriteParagraph("Start: " + race.Event.StartTime); err != nil {
		return nil, layoutErr("title", err)
	}
	cur.page.AddTextFlow(flow)
	_, cur.y = flow.Cursor()

	// Results, split in two so the header has no rule above it.
	header := document.WithEqualColumns(results.NumColumns, tableWidth)
	if err := header.AddHeaderRow(results.Columns); err != nil {
		return nil, layoutErr("results header", err)
	}
	header.SetOptions(document.Options{Grid: document.GridNone, HeaderFont: document.HelveticaBold})
	header.SetPosition(tableX, cur.y)
	if err := cur.page.AddTable(header); err != nil {
		return nil, layoutErr("results header", err)
	}
	cur.y += header.Height()

	rest := race.Competitors
	for len(rest) > 0 {
		n, err := fitResults(rest, tableWidth, cur.bottom()-cur.y)
		if err != nil {
			return nil, layoutErr("results", err)
		}
		if n == 0 {
			if cur.atTop() {
				return nil, layoutErr("results", fmt.Errorf("row taller than a page: %w", document.ErrOffPage))
			}
			cur.newPage()
			continue
		}
		body, err := resultsBody(rest[:n], tableWidth)
		if err != nil {
			return nil, layoutErr("results", err)
		}
		body.SetPosition(tableX, cur.y)
		if err := cur.page.AddTable(body); err != nil {
			return nil, layoutErr("results", err)
		}
		cur.y += body.Height()
		rest = rest[n:]
	}

	// Flags
	cur.y += sectionGap
	flags := e.detector.Flags(race)
	for _, f := range flags {
		if cur.y+fontSize > cur.bottom() {
			cur.newPage()
		}
		lh, err := cur.page.WriteLine(width*SideMargin, cur.y, document.HelveticaBold, fontSize,
			fmt.Sprintf("Potential mismatch, lane %d, place %d", f.Lane, f.Place))
		if err != nil {
			return nil, layoutErr("flags", err)
		}
		cur.y += lh
	}

	// Transponder matrix, moved to a fresh page when not even its header and
	// one row fit below the flags.
	rows := TransponderRows(race)
	limit := height * (1 - BottomBudget)
	transponderY := cur.y + sectionGap
	capacity, err := FirstPageCapacity(transponderY+sectionGap, limit)
	if err != nil {
		return nil, layoutErr("transponder capacity", err)
	}
	if capacity < 1 && !cur.atTop() {
		cur.newPage()
		transponderY = cur.y
		if capacity, err = FirstPageCapacity(transponderY+sectionGap, limit); err != nil {
			return nil, layoutErr("transponder capacity", err)
		}
	}
	if _, err := cur.page.WriteLine(width*SideMargin, transponderY, document.HelveticaBold, fontSize, "Transponder Times"); err != nil {
		return nil, layoutErr("transponder caption", err)
	}

	tableTop := transponderY + sectionGap
	first, overflow := PartitionRows(rows, capacity)

	columns := len(race.Competitors) + 1
	transponder := document.WithEqualColumns(columns, tableWidth)
	for _, r := range first {
		if err := transponder.AddRowWithAlignment(r, document.AlignCenter); err != nil {
			return nil, layoutErr("transponder", err)
		}
	}
	if err := transponder.AddHeaderRow(transponderHeader(len(race.Competitors))); err != nil {
		return nil, layoutErr("transponder header", err)
	}
	transponder.SetOptions(document.Options{Grid: document.GridFull, HeaderFont: document.HelveticaBold})
	transponder.SetPosition(tableX, tableTop)
	if err := cur.page.AddTable(transponder); err != nil {
		return nil, layoutErr("transponder", err)
	}

	sheet := &Sheet{
		Document:   doc,
		Flags:      flags,
		Rows:       rows,
		MatrixPage: len(doc.Pages()) - 1,
		Capacity:   capacity,
		FirstPage:  first,
		TableTop:   tableTop,
	}

	// Overflow pages carry header-less tables from the top margin down.
	for len(overflow) > 0 {
		cur.newPage()
		n, err := OverflowCapacity(cur.y, cur.bottom())
		if err != nil {
			return nil, layoutErr("overflow capacity", err)
		}
		var chunk [][]string
		// keep the rows that continue the previous page on this one
		chunk, overflow = suffix(overflow, max(n, 1))

		other := document.WithEqualColumns(columns, tableWidth)
		for _, r := range chunk {
			if err := other.AddRowWithAlignment(r, document.AlignCenter); err != nil {
				return nil, layoutErr("overflow", err)
			}
		}
		other.SetOptions(document.Options{Grid: document.GridFull})
		other.SetPosition(tableX, cur.y)
		if err := cur.page.AddTable(other); err != nil {
			return nil, layoutErr("overflow", err)
		}
		sheet.Overflow = append(sheet.Overflow, chunk)
	}

	return sheet, nil
}

// fitResults counts how many competitors, in file order, fit as result rows
// within room points.
func fitResults(competitors []model.CompetitorRecord, width, room float64) (int, error) {
	measure := document.WithEqualColumns(results.NumColumns, width)
	measure.SetOptions(document.Options{Grid: document.GridHorizontal})
	for i, c := range competitors {
		if err := measure.AddRow(results.FormatRow(c)); err != nil {
			return 0, err
		}
		if measure.Height() > room {
			return i, nil
		}
	}
	return len(competitors), nil
}

// resultsBody adds competitors last first, so with upward stacking they read
// in file order.
func resultsBody(competitors []model.CompetitorRecord, width float64) (*document.Table, error) {
	body := document.WithEqualColumns(results.NumColumns, width)
	body.SetOptions(document.Options{Grid: document.GridHorizontal})
	for i := len(competitors) - 1; i >= 0; i-- {
		if err := body.AddRowWithAlignment(results.FormatRow(competitors[i]), document.AlignCenter); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// TransponderRows builds one row per split index that at least one competitor
// reached: the 1-based index, then each competitor's split in race order,
// "Junk" for an invalid split or "" when the competitor has none.
func TransponderRows(race *model.RaceEvent) [][]string {
	var rows [][]string
	for i := 0; ; i++ {
		row := []string{strconv.Itoa(i + 1)}
		reached := false
		for _, c := range race.Competitors {
			switch {
			case i >= len(c.Splits):
				row = append(row, "")
			case c.Splits[i].IsValid():
				reached = true
				row = append(row, c.Splits[i].String())
			default:
				reached = true
				row = append(row, "Junk")
			}
		}
		if !reached {
			return rows
		}
		rows = append(rows, row)
	}
}

// FirstPageCapacity counts how many single-line rows fit under a header in a
// table starting at top without its bottom passing limit. Heights come from a
// measuring table, never from a fixed row height.
func FirstPageCapacity(top, limit float64) (int, error) {
	measure := document.WithEqualColumns(1, 10)
	if err := measure.AddHeaderRow([]string{""}); err != nil {
		return 0, err
	}
	return measureCapacity(measure, top, limit)
}

// OverflowCapacity is FirstPageCapacity for a table without a header.
func OverflowCapacity(top, limit float64) (int, error) {
	return measureCapacity(document.WithEqualColumns(1, 10), top, limit)
}

func measureCapacity(measure *document.Table, top, limit float64) (int, error) {
	n := 0
	for {
		if err := measure.AddRow([]string{""}); err != nil {
			return 0, err
		}
		if top+measure.Height() > limit {
			return n, nil
		}
		n++
	}
}

// PartitionRows reverses rows and keeps the last capacity of them for the
// first page; the rest, still reversed, spill over.
func PartitionRows(rows [][]string, capacity int) (first, overflow [][]string) {
	reversed := slices.Clone(rows)
	slices.Reverse(reversed)
	overflow, first = split(reversed, capacity)
	return first, overflow
}

// suffix returns the last n rows and everything before them.
func suffix(rows [][]string, n int) (tail, head [][]string) {
	head, tail = split(rows, n)
	return tail, head
}

func split(rows [][]string, n int) (head, tail [][]string) {
	if n < 0 {
		n = 0
	}
	if len(rows) <= n {
		return nil, rows
	}
	cut := len(rows) - n
	return rows[:cut], rows[cut:]
}

func transponderHeader(competitors int) []string {
	h := make([]string, 0, competitors+1)
	h = append(h, "Place")
	for i := 1; i <= competitors; i++ {
		h = append(h, strconv.Itoa(i))
	}
	return h
}
