// Package results turns competitor records into table rows.
package results

import (
	"cmp"
	"slices"
	"strconv"

	"lifsheet/internal/model"
)

// Column indexes of a formatted row.
const (
	ColPlace = iota
	ColID
	ColLane
	ColFirstName
	ColLastName
	ColClub
	ColTime
	NumColumns
)

// Columns are the header titles, in row order.
var Columns = []string{"Place", "ID", "Lane", "First Name", "Last Name", "Affiliation", "Time (PF)"}

// FormatRow returns the seven display strings for c, with sentinel labels
// substituted.
func FormatRow(c model.CompetitorRecord) []string {
	row := make([]string, 0, NumColumns)

	if c.IsDNF() {
		row = append(row, "DNF")
	} else {
		row = append(row, strconv.Itoa(int(c.Place)))
	}

	if c.IsSkaterMissing() {
		row = append(row, "Missing")
	} else {
		row = append(row, strconv.FormatUint(uint64(c.SkaterID), 10))
	}

	if c.IsLaneMissing() {
		row = append(row, "Missing")
	} else {
		row = append(row, strconv.Itoa(int(c.Lane)))
	}

	row = append(row, c.FirstName, c.LastName, c.Club)

	if c.HasTime() {
		row = append(row, c.OfficialTime.String())
	} else {
		row = append(row, "No Time")
	}
	return row
}

// FormatRows formats competitors in the given order.
func FormatRows(competitors []model.CompetitorRecord) [][]string {
	out := make([][]string, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, FormatRow(c))
	}
	return out
}

// Sorted returns a copy of competitors ordered by the given column. Unknown
// columns sort by place. The sort is stable so equal keys keep file order.
func Sorted(competitors []model.CompetitorRecord, column int, ascending bool) []model.CompetitorRecord {
	out := slices.Clone(competitors)

	compare := func(a, b model.CompetitorRecord) int {
		switch column {
		case ColID:
			return cmp.Compare(a.SkaterID, b.SkaterID)
		case ColLane:
			return cmp.Compare(a.Lane, b.Lane)
		case ColFirstName:
			return cmp.Compare(a.FirstName, b.FirstName)
		case ColLastName:
			return cmp.Compare(a.LastName, b.LastName)
		case ColClub:
			return cmp.Compare(a.Club, b.Club)
		case ColTime:
			return CompareTimes(a.OfficialTime, b.OfficialTime)
		default:
			return cmp.Compare(a.Place, b.Place)
		}
	}

	slices.SortStableFunc(out, func(a, b model.CompetitorRecord) int {
		if ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
	return out
}

// CompareTimes orders valid times by total seconds, with invalid times after
// every valid one.
func CompareTimes(a, b model.TimeValue) int {
	switch {
	case !a.IsValid() && !b.IsValid():
		return 0
	case !a.IsValid():
		return 1
	case !b.IsValid():
		return -1
	}
	return cmp.Compare(a.TotalSeconds(), b.TotalSeconds())
}

// ParseColumn maps a column index or title to its index, or -1.
func ParseColumn(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < NumColumns {
		return n
	}
	for i, title := range Columns {
		if title == s {
			return i
		}
	}
	return -1
}
