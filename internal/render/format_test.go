package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{seconds: 65, want: "1:05"},
		{seconds: 900, want: "15:00"},
		{seconds: 59, want: "0:59"},
		{seconds: 0, want: "0:00"},
		{seconds: -3, want: "0:00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatClock(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestFormatPercentRounds(t *testing.T) {
	assert.Equal(t, "67%", FormatPercent(66.666))
	assert.Equal(t, "50%", FormatPercent(50))
	assert.Equal(t, "100%", FormatPercent(99.5))
	assert.Equal(t, "0%", FormatPercent(0.4))
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "2", FormatPoints(2))
	assert.Equal(t, "1.5", FormatPoints(1.5))
	assert.Equal(t, "70", FormatPoints(70))
}

func TestFormatIssuedDate(t *testing.T) {
	assert.Equal(t, "March 4, 2026", FormatIssuedDate(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatIssuedDate(time.Time{}))
}

func TestOptionLetters(t *testing.T) {
	assert.Equal(t, "A", OptionLetter(0))
	assert.Equal(t, "F", OptionLetter(5))
	assert.Equal(t, "7", OptionLetter(6))

	index, ok := LetterIndex(" b ", 4)
	assert.True(t, ok)
	assert.Equal(t, 1, index)

	_, ok = LetterIndex("e", 4)
	assert.False(t, ok)
	_, ok = LetterIndex("ab", 4)
	assert.False(t, ok)
	_, ok = LetterIndex("a", 0)
	assert.False(t, ok)
}

func TestScoreRing(t *testing.T) {
	full := NewScoreRing(100, true)
	assert.InDelta(t, 0, full.Offset, 1e-9)
	assert.InDelta(t, 1, full.Filled(), 1e-9)
	assert.Equal(t, "[##########]", full.Gauge(10))

	empty := NewScoreRing(0, false)
	assert.InDelta(t, RingCircumference, empty.Offset, 1e-9)
	assert.Equal(t, "[----------]", empty.Gauge(10))

	half := NewScoreRing(50, false)
	assert.InDelta(t, RingCircumference/2, half.Offset, 1e-9)
	assert.Equal(t, "[#####-----]", half.Gauge(10))

	over := NewScoreRing(120, true)
	assert.InDelta(t, 0, over.Offset, 1e-9)
}
