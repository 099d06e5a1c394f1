package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RingRadius is the radius of the results score ring.
const RingRadius = 58.0

var RingCircumference = 2 * math.Pi * RingRadius

// FormatClock renders seconds as M:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func FormatPercent(percentage float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(percentage)))
}

func FormatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}

func FormatIssuedDate(issuedAt time.Time) string {
	if issuedAt.IsZero() {
		return ""
	}
	return issuedAt.Format("January 2, 2006")
}

// OptionLetter labels options A-F; anything beyond falls back to its number.
func OptionLetter(index int) string {
	const letters = "ABCDEF"
	if index >= 0 && index < len(letters) {
		return string(letters[index])
	}
	return strconv.Itoa(index + 1)
}

// LetterIndex parses an option letter typed by the user.
func LetterIndex(input string, optionCount int) (int, bool) {
	input = strings.ToUpper(strings.TrimSpace(input))
	if len(input) != 1 || optionCount < 1 {
		return -1, false
	}
	index := int(input[0] - 'A')
	if index < 0 || index >= optionCount {
		return -1, false
	}
	return index, true
}

type ScoreRing struct {
	Percentage float64
	Offset     float64
	Passed     bool
}

func NewScoreRing(percentage float64, passed bool) ScoreRing {
	clamped := math.Max(0, math.Min(100, percentage))
	return ScoreRing{
		Percentage: percentage,
		Offset:     RingCircumference - (clamped/100)*RingCircumference,
		Passed:     passed,
	}
}

// Filled is the share of the ring drawn, in [0, 1].
func (r ScoreRing) Filled() float64 {
	return (RingCircumference - r.Offset) / RingCircumference
}

// Gauge draws the ring as a bar of width cells.
func (r ScoreRing) Gauge(width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(math.Round(r.Filled() * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
