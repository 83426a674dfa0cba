package discrepancy

import (
	"math"
	"testing"

	"lifsheet/internal/model"
)

func tv(m, s uint32, sub float64) model.TimeValue {
	return model.TimeValue{Minutes: m, Seconds: s, Subsecond: sub}
}

func TestHasDiscrepancy(t *testing.T) {
	splits := []model.TimeValue{tv(0, 10, 0.2), tv(0, 30, 0.1), tv(0, 31, 0.0)}

	tests := []struct {
		name     string
		official model.TimeValue
		splits   []model.TimeValue
		expected bool
	}{
		{"matches final prefix", tv(1, 11, 0.3), splits, false},
		{"matches middle prefix", tv(0, 40, 0.3), splits, false},
		{"within threshold", tv(1, 11, 0.6), splits, false},
		{"far from every prefix", tv(1, 20, 0.0), splits, true},
		{"just past threshold", tv(1, 11, 0.75), splits, true},
		{"no splits", tv(1, 0, 0.0), nil, true},
	}
	for _, test := range tests {
		if got := HasDiscrepancy(test.official, test.splits); got != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, got)
		}
	}
}

func TestDetectorThreshold(t *testing.T) {
	splits := []model.TimeValue{tv(0, 40, 0.0)}
	official := tv(0, 41, 0.0)

	if !NewDetector(0).HasDiscrepancy(official, splits) {
		t.Error("Expected default threshold to flag a 1s gap")
	}
	if NewDetector(1.5).HasDiscrepancy(official, splits) {
		t.Error("Expected 1.5s threshold to accept a 1s gap")
	}
	if d := ClosestPrefixDiff(official, nil); !math.IsInf(d, 1) {
		t.Errorf("Expected +Inf for empty splits, got %f", d)
	}
}

func TestFlags(t *testing.T) {
	race := &model.RaceEvent{Competitors: []model.CompetitorRecord{
		{Place: 1, Lane: 3, OfficialTime: tv(0, 40, 0.5), Splits: []model.TimeValue{tv(0, 40, 0.5)}},
		{Place: 2, Lane: 4, OfficialTime: tv(0, 42, 0.0), Splits: []model.TimeValue{tv(0, 45, 0.0)}},
		{Place: 255, Lane: 5, OfficialTime: model.InvalidTime()},
		{Place: 3, Lane: 6, OfficialTime: tv(0, 44, 0.0)},
	}}

	flags := NewDetector(DefaultThreshold).Flags(race)
	if len(flags) != 2 {
		t.Fatalf("Expected 2 flags, got %d: %+v", len(flags), flags)
	}
	if flags[0].Index != 1 || flags[0].Lane != 4 || flags[0].Place != 2 {
		t.Errorf("Unexpected first flag %+v", flags[0])
	}
	if math.Abs(flags[0].ClosestBy-3.0) > 1e-9 {
		t.Errorf("Expected closest gap of 3s, got %f", flags[0].ClosestBy)
	}
	if !flags[1].NoSplits || flags[1].ClosestBy != 0 {
		t.Errorf("Expected no-splits flag, got %+v", flags[1])
	}
}
