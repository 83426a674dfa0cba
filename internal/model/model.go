package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinels carried by LIF files for missing or invalid values.
const (
	PlaceDNF         uint8  = math.MaxUint8
	LaneMissing      uint8  = math.MaxUint8
	SkaterIDMissing  uint32 = math.MaxUint32
	InvalidSubsecond        = -1.0
)

// EventInfo is the header line of a LIF file.
type EventInfo struct {
	EventCode string `json:"event_code"`
	EventName string `json:"event_name"`
	StartTime string `json:"start_time"` // raw text, not parsed
}

// TimeValue is a minutes/seconds/fraction time. A value whose Subsecond is
// negative is the invalid (DNF) sentinel: 0, 0, -1.0.
type TimeValue struct {
	Minutes   uint32  `json:"minutes"`
	Seconds   uint32  `json:"seconds"`
	Subsecond float64 `json:"subsecond"`
}

// InvalidTime returns the DNF sentinel.
func InvalidTime() TimeValue {
	return TimeValue{Subsecond: InvalidSubsecond}
}

func (t TimeValue) IsValid() bool { return t.Subsecond >= 0 }

// TotalSeconds is minutes*60 + seconds + subsecond.
func (t TimeValue) TotalSeconds() float64 {
	return float64(t.Minutes)*60 + float64(t.Seconds) + t.Subsecond
}

// Add accumulates field-wise without carrying; the result is only meaningful
// for TotalSeconds comparisons.
func (t TimeValue) Add(o TimeValue) TimeValue {
	return TimeValue{
		Minutes:   t.Minutes + o.Minutes,
		Seconds:   t.Seconds + o.Seconds,
		Subsecond: t.Subsecond + o.Subsecond,
	}
}

// AbsDiffSeconds is |t - o| in seconds.
func (t TimeValue) AbsDiffSeconds(o TimeValue) float64 {
	return math.Abs(t.TotalSeconds() - o.TotalSeconds())
}

// String renders MM:SS followed by the fractional digits, e.g. "01:02.345".
// The sentinel renders as "DNF".
func (t TimeValue) String() string {
	if !t.IsValid() {
		return "DNF"
	}
	frac := strconv.FormatFloat(t.Subsecond, 'f', -1, 64)
	if i := strings.IndexByte(frac, '.'); i >= 0 {
		frac = frac[i:]
	} else {
		frac = ".0"
	}
	return fmt.Sprintf("%02d:%02d%s", t.Minutes, t.Seconds, frac)
}

// CompetitorRecord is one competitor line of a LIF file.
type CompetitorRecord struct {
	Place        uint8       `json:"place"`
	SkaterID     uint32      `json:"skater_id"`
	Lane         uint8       `json:"lane"`
	LastName     string      `json:"last_name"`
	FirstName    string      `json:"first_name"`
	Club         string      `json:"club"`
	TimeRaw      string      `json:"time_raw"`
	OfficialTime TimeValue   `json:"official_time"`
	SplitsRaw    string      `json:"splits_raw"`
	Splits       []TimeValue `json:"splits"`
	StartTime    string      `json:"start_time"`
}

func (c CompetitorRecord) IsDNF() bool           { return c.Place == PlaceDNF }
func (c CompetitorRecord) IsLaneMissing() bool   { return c.Lane == LaneMissing }
func (c CompetitorRecord) IsSkaterMissing() bool { return c.SkaterID == SkaterIDMissing }
func (c CompetitorRecord) HasTime() bool         { return c.OfficialTime.IsValid() }

// RaceEvent holds a parsed file. Competitors keep file order.
type RaceEvent struct {
	Event       EventInfo          `json:"event"`
	Competitors []CompetitorRecord `json:"competitors"`
}

// MaxSplits is the longest split list among the competitors.
func (r *RaceEvent) MaxSplits() int {
	n := 0
	for _, c := range r.Competitors {
		if len(c.Splits) > n {
			n = len(c.Splits)
		}
	}
	return n
}
