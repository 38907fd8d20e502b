package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		c, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}

	c, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, Default, c.Name())

	_, err = Lookup("stardate")
	assert.True(t, errors.Is(err, ErrUnknownCalendar))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"countup", "earth", "rimworld"}, Names())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		calendar string
		ts       int64
		want     string
	}{
		{"countup", 0, "Day 1, 00:00"},
		{"countup", 1441, "Day 2, 00:01"},
		{"countup", -1, "Day 0, 23:59"},
		{"earth", 0, "1970-01-01 00:00"},
		{"earth", 90, "1970-01-01 01:30"},
		{"rimworld", 0, "1st of Aprimay, 5500, 00:00"},
		{"rimworld", 15 * MinutesPerDay, "1st of Jugust, 5500, 00:00"},
		{"rimworld", 60 * MinutesPerDay, "1st of Aprimay, 5501, 00:00"},
		{"rimworld", -MinutesPerDay, "15th of Decembary, 5499, 00:00"},
		{"rimworld", 10*MinutesPerDay + 13*MinutesPerHour + 5, "11th of Aprimay, 5500, 13:05"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c, err := Lookup(tt.calendar)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Format(tt.ts))
		})
	}
}

func TestFormatTickCoarsensWithScale(t *testing.T) {
	countupCal, _ := Lookup("countup")
	assert.Equal(t, "Day 1, 01:30", countupCal.FormatTick(90, 1))
	assert.Equal(t, "Day 1", countupCal.FormatTick(90, 0.1))
	assert.Equal(t, "Day 15", countupCal.FormatTick(14*MinutesPerDay, 0.01))
	assert.Equal(t, "Week 3", countupCal.FormatTick(14*MinutesPerDay, 0.001))

	earthCal, _ := Lookup("earth")
	ts := earthCal.FromTime(time.Date(2025, time.March, 4, 5, 6, 0, 0, time.UTC))
	assert.Equal(t, "Mar 4 05:06", earthCal.FormatTick(ts, 1))
	assert.Equal(t, "Mar 4", earthCal.FormatTick(ts, 0.1))
	assert.Equal(t, "Mar 2025", earthCal.FormatTick(ts, 0.01))
	assert.Equal(t, "2025", earthCal.FormatTick(ts, 0.001))

	rim, _ := Lookup("rimworld")
	assert.Equal(t, "2nd Jugust, 6h", rim.FormatTick(16*MinutesPerDay+6*MinutesPerHour, 1))
	assert.Equal(t, "2nd Jugust", rim.FormatTick(16*MinutesPerDay, 0.1))
	assert.Equal(t, "Jugust 5500", rim.FormatTick(16*MinutesPerDay, 0.01))
	assert.Equal(t, "5500", rim.FormatTick(16*MinutesPerDay, 0.001))
}

func TestFromTime(t *testing.T) {
	c, _ := Lookup("earth")
	ts := c.FromTime(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, int64(1735689600/60), ts)
	assert.Equal(t, "2025-01-01 00:00", c.Format(ts))

	before := c.FromTime(time.Unix(-30, 0))
	assert.Equal(t, int64(-1), before)
}

func TestWithOrigin(t *testing.T) {
	base, _ := Lookup("countup")
	assert.Equal(t, base, WithOrigin(base, 0))

	c := WithOrigin(base, MinutesPerDay)
	assert.Equal(t, "Day 2, 00:00", c.Format(0))
	assert.Equal(t, "Day 2", c.FormatTick(0, 0.1))
	assert.Equal(t, int64(-MinutesPerDay), c.FromTime(time.Unix(0, 0)))
	assert.Equal(t, "countup", c.Name())
}

func TestOrdinal(t *testing.T) {
	cases := map[int64]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd"}
	for n, want := range cases {
		assert.Equal(t, want, ordinal(n))
	}
}
