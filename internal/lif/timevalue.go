package lif

import (
	"math"
	"strconv"
	"strings"

	"lifsheet/internal/model"
)

// ParseTime parses "M:SS.fff" style tokens. Tokens with more than one colon or
// without a decimal point are DNF markers and yield model.InvalidTime().
func ParseTime(token string) (model.TimeValue, error) {
	var (
		out         model.TimeValue
		buf         strings.Builder
		colons      int
		decimalSeen bool
	)

	for _, c := range token {
		switch c {
		case ':':
			m, err := parseDigits(buf.String())
			if err != nil {
				return model.TimeValue{}, &TimeFormatError{Token: token, Part: "minutes"}
			}
			out.Minutes = m
			buf.Reset()
			colons++
		case '.':
			s, err := parseDigits(buf.String())
			if err != nil {
				return model.TimeValue{}, &TimeFormatError{Token: token, Part: "seconds"}
			}
			out.Seconds = s
			buf.Reset()
			decimalSeen = true
		default:
			buf.WriteRune(c)
		}
	}

	if colons > 1 || !decimalSeen {
		return model.InvalidTime(), nil
	}

	frac := strings.TrimSpace(buf.String())
	if frac == "" || strings.TrimLeft(frac, "0123456789") != "" {
		return model.TimeValue{}, &TimeFormatError{Token: token, Part: "fraction"}
	}
	// digits past float64 precision cannot change Subsecond
	if len(frac) > maxFractionDigits {
		frac = frac[:maxFractionDigits]
	}
	n, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return model.TimeValue{}, &TimeFormatError{Token: token, Part: "fraction"}
	}
	out.Subsecond = float64(n) / math.Pow10(len(frac))
	return out, nil
}

// maxFractionDigits is the longest fraction that still fits a uint64.
const maxFractionDigits = 18

func parseDigits(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	return uint32(v), err
}
