// Package discrepancy flags competitors whose official time matches no prefix
// sum of their transponder splits.
package discrepancy

import (
	"math"

	"lifsheet/internal/model"
)

// DefaultThreshold is the largest gap, in seconds, between the official time
// and the closest split prefix sum that is still accepted.
const DefaultThreshold = 0.4

// Detector checks official times against cumulative splits.
type Detector struct {
	Threshold float64
}

func NewDetector(threshold float64) Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Detector{Threshold: threshold}
}

// HasDiscrepancy uses DefaultThreshold.
func HasDiscrepancy(official model.TimeValue, splits []model.TimeValue) bool {
	return Detector{Threshold: DefaultThreshold}.HasDiscrepancy(official, splits)
}

// HasDiscrepancy reports whether no prefix sum of splits lies within the
// threshold of official. An empty split list is always a discrepancy.
func (d Detector) HasDiscrepancy(official model.TimeValue, splits []model.TimeValue) bool {
	return ClosestPrefixDiff(official, splits) > d.Threshold
}

// ClosestPrefixDiff returns the smallest |prefix sum - official| in seconds,
// or +Inf when there are no splits.
func ClosestPrefixDiff(official model.TimeValue, splits []model.TimeValue) float64 {
	lowest := math.Inf(1)
	var cumulative model.TimeValue
	for _, s := range splits {
		cumulative = cumulative.Add(s)
		lowest = math.Min(lowest, cumulative.AbsDiffSeconds(official))
	}
	return lowest
}

// Flag identifies a competitor with a suspicious official time.
type Flag struct {
	Index     int     `json:"index"` // position in RaceEvent.Competitors
	Lane      uint8   `json:"lane"`
	Place     uint8   `json:"place"`
	SkaterID  uint32  `json:"skater_id"`
	Official  string  `json:"official"`
	ClosestBy float64 `json:"closest_by"` // zero when NoSplits
	NoSplits  bool    `json:"no_splits"`
}

// Flags checks every competitor with a valid official time, in file order.
func (d Detector) Flags(race *model.RaceEvent) []Flag {
	var out []Flag
	for i, c := range race.Competitors {
		if !c.HasTime() {
			continue
		}
		diff := ClosestPrefixDiff(c.OfficialTime, c.Splits)
		if diff <= d.Threshold {
			continue
		}
		f := Flag{
			Index:    i,
			Lane:     c.Lane,
			Place:    c.Place,
			SkaterID: c.SkaterID,
			Official: c.OfficialTime.String(),
			NoSplits: len(c.Splits) == 0,
		}
		if !f.NoSplits {
			f.ClosestBy = diff
		}
		out = append(out, f)
	}
	return out
}
