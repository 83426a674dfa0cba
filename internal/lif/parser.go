// Package lif reads the comma-separated LIF export written by race-timing
// hardware.
package lif

import (
	"strconv"
	"strings"

	"lifsheet/internal/model"
)

// Competitor line columns.
const (
	colPlace     = 0
	colSkaterID  = 1
	colLane      = 2
	colLastName  = 3
	colFirstName = 4
	colClub      = 5
	colTime      = 6
	colSplits    = 10
	colStartTime = 11

	minTokens = 4
)

// Parse builds a RaceEvent from the full text of a LIF file. name is only used
// in error messages.
func Parse(raw, name string) (*model.RaceEvent, error) {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil, &ParseError{File: name, Msg: "file has no content"}
	}

	header := strings.Split(lines[0], ",")
	if len(header) < 4 {
		return nil, &ParseError{File: name, Line: 1, Field: "event name", Msg: "Missing event name"}
	}
	race := &model.RaceEvent{
		Event: model.EventInfo{
			EventCode: header[0],
			EventName: header[3],
			StartTime: header[len(header)-1],
		},
	}

	for i, line := range lines[1:] {
		fields := SplitQuoted(line)
		// stray trailing entries, not competitor data
		if len(fields) < minTokens {
			continue
		}
		c, err := parseCompetitor(fields)
		if err != nil {
			err.File = name
			err.Line = i + 2
			return nil, err
		}
		race.Competitors = append(race.Competitors, c)
	}

	return race, nil
}

// SplitQuoted splits on commas that are not inside double quotes. Enclosing
// quotes are removed from each field.
func SplitQuoted(line string) []string {
	var (
		fields []string
		cur    strings.Builder
		quoted bool
	)
	for _, c := range line {
		if c == '"' {
			quoted = !quoted
		}
		if c == ',' && !quoted {
			fields = append(fields, unquote(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(c)
	}
	return append(fields, unquote(cur.String()))
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseSplits extracts every "(...)" group in order and parses it as a time.
// Text outside parentheses is ignored.
func ParseSplits(blob string) ([]model.TimeValue, error) {
	var (
		splits []model.TimeValue
		cur    strings.Builder
		active bool
	)
	for _, c := range blob {
		switch {
		case c == '(':
			active = true
		case c == ')':
			t, err := ParseTime(cur.String())
			if err != nil {
				return nil, err
			}
			splits = append(splits, t)
			cur.Reset()
			active = false
		case active:
			cur.WriteRune(c)
		}
	}
	return splits, nil
}

func parseCompetitor(fields []string) (model.CompetitorRecord, *ParseError) {
	get := func(idx int, field string) (string, *ParseError) {
		if idx >= len(fields) {
			return "", &ParseError{Field: field, Msg: "Missing " + field}
		}
		return fields[idx], nil
	}

	var c model.CompetitorRecord

	s, perr := get(colPlace, "place")
	if perr != nil {
		return c, perr
	}
	place, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return c, &ParseError{Field: "place", Msg: "Couldn't parse place"}
	}
	c.Place = uint8(place)

	if s, perr = get(colSkaterID, "skater ID"); perr != nil {
		return c, perr
	}
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return c, &ParseError{Field: "skater_id", Msg: "Couldn't parse skater_id"}
	}
	c.SkaterID = uint32(id)

	if s, perr = get(colLane, "lane"); perr != nil {
		return c, perr
	}
	lane, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return c, &ParseError{Field: "lane", Msg: "Couldn't parse lane"}
	}
	c.Lane = uint8(lane)

	if c.LastName, perr = get(colLastName, "last name"); perr != nil {
		return c, perr
	}
	if c.FirstName, perr = get(colFirstName, "first name"); perr != nil {
		return c, perr
	}
	if c.Club, perr = get(colClub, "club"); perr != nil {
		return c, perr
	}

	if c.TimeRaw, perr = get(colTime, "time"); perr != nil {
		return c, perr
	}
	if c.OfficialTime, err = ParseTime(c.TimeRaw); err != nil {
		return c, &ParseError{Field: "time", Msg: "Couldn't parse time", Err: err}
	}

	if c.SplitsRaw, perr = get(colSplits, "splits"); perr != nil {
		return c, perr
	}
	if c.Splits, err = ParseSplits(c.SplitsRaw); err != nil {
		return c, &ParseError{Field: "splits", Msg: "Couldn't parse splits", Err: err}
	}

	if c.StartTime, perr = get(colStartTime, "start time"); perr != nil {
		return c, perr
	}
	return c, nil
}

func splitLines(raw string) []string {
	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
