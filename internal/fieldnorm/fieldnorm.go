// Package fieldnorm normalizes the heterogeneous raw string fields scraped
// from movie pages into semantic values: durations to minutes, money strings
// to numbers, date-and-place composites to their parts, and flagged sentinels
// to missing cells.
//
// Every parser is total over its input: malformed text yields a missing cell,
// never an error.
package fieldnorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/moviedex/preproc/internal/frame"
)

// DefaultFlags are the sentinel tokens treated as missing values. "N|/|A" is
// the variant the Sound Mix field uses.
var DefaultFlags = []string{"N/A", "", "N|/|A"}

var (
	durationRe  = regexp.MustCompile(`^(?:(\d+)h)? ?(?:(\d+)m)?$`)
	datePlaceRe = regexp.MustCompile(`^(.*\d{4}) \((.*)\)$`)
	numericRe   = regexp.MustCompile(`[^\d.]`)
)

// ParseDuration parses a duration like "2h 15m", "3h" or "45m" into minutes.
// Input with neither token present is missing.
func ParseDuration(c frame.Cell) frame.Cell {
	if c.IsMissing() {
		return frame.Missing()
	}
	m := durationRe.FindStringSubmatch(c.Text())
	if m == nil || (m[1] == "" && m[2] == "") {
		return frame.Missing()
	}
	var minutes int64
	if m[1] != "" {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		minutes += h * 60
	}
	if m[2] != "" {
		mm, _ := strconv.ParseInt(m[2], 10, 64)
		minutes += mm
	}
	return frame.Number(float64(minutes))
}

// ParseMoney parses a money string like "$1,200,000" into its face value.
// Only strings starting with the currency marker qualify; anything after the
// first whitespace (e.g. "(estimated)") is ignored. Everything else is
// missing, including bare numbers.
func ParseMoney(c frame.Cell) frame.Cell {
	s, ok := c.Str()
	if !ok || !strings.HasPrefix(s, "$") {
		return frame.Missing()
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return frame.Missing()
	}
	return frame.Number(v)
}

// SplitDateAndPlace splits a string like "March 3, 2020 (USA)" into its date
// and place parts. The literal "n/a" (any case) and non-matching text yield
// two missing cells.
func SplitDateAndPlace(c frame.Cell) (date, place frame.Cell) {
	s, ok := c.Str()
	if !ok || strings.EqualFold(strings.TrimSpace(s), "n/a") {
		return frame.Missing(), frame.Missing()
	}
	m := datePlaceRe.FindStringSubmatch(s)
	if m == nil {
		return frame.Missing(), frame.Missing()
	}
	return frame.String(m[1]), frame.String(m[2])
}

// ReplaceFlags turns any cell whose text exactly equals one of the flag
// tokens into a missing cell. Applying it twice is a no-op: missing cells are
// left alone and replaced cells carry no text to match.
func ReplaceFlags(c frame.Cell, flags []string) frame.Cell {
	s, ok := c.Str()
	if !ok {
		return c
	}
	for _, f := range flags {
		if s == f {
			return frame.Missing()
		}
	}
	return c
}

// CleanNumeric strips every character except digits and the decimal point and
// parses the remainder. An empty or unparseable remainder is missing.
func CleanNumeric(c frame.Cell) frame.Cell {
	if c.IsMissing() {
		return frame.Missing()
	}
	if _, ok := c.Number(); ok {
		return c
	}
	s := numericRe.ReplaceAllString(c.Text(), "")
	if s == "" {
		return frame.Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return frame.Missing()
	}
	return frame.Number(v)
}

// Log1p applies log(1+x) to positive numeric cells. Non-positive and
// non-numeric cells are missing.
func Log1p(c frame.Cell) frame.Cell {
	v, ok := c.Number()
	if !ok || v <= 0 {
		return frame.Missing()
	}
	return frame.Number(math.Log1p(v))
}

// ReplaceFlagsFrame applies ReplaceFlags to every cell of the frame and
// returns a new frame.
func ReplaceFlagsFrame(f *frame.Frame, flags []string) *frame.Frame {
	out := f.Clone()
	for _, col := range out.Columns() {
		cells, _ := out.Column(col)
		for i, c := range cells {
			cells[i] = ReplaceFlags(c, flags)
		}
	}
	return out
}
