package core_test

import (
	"testing"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Weekday(t *testing.T) {
	t.Run("Should index Monday as 0 and Sunday as 6", func(t *testing.T) {
		mon, err := core.ParseDate("2025-10-06")
		require.NoError(t, err)
		sun, err := core.ParseDate("2025-10-12")
		require.NoError(t, err)
		assert.Equal(t, 0, mon.Weekday())
		assert.Equal(t, 6, sun.Weekday())
	})
}

func TestDate_Arithmetic(t *testing.T) {
	t.Run("Should add days across month boundaries", func(t *testing.T) {
		d, err := core.ParseDate("2025-10-30")
		require.NoError(t, err)
		assert.Equal(t, "2025-11-02", d.AddDays(3).String())
	})
	t.Run("Should count days until a later date", func(t *testing.T) {
		a, _ := core.ParseDate("2025-10-03")
		b, _ := core.ParseDate("2025-10-07")
		assert.Equal(t, 4, a.DaysUntil(b))
		assert.Equal(t, -4, b.DaysUntil(a))
	})
	t.Run("Should stay stable across the DST fall-back date", func(t *testing.T) {
		// 2025-11-02 is the US fall-back transition.
		d, _ := core.ParseDate("2025-11-01")
		assert.Equal(t, "2025-11-02", d.AddDays(1).String())
		assert.Equal(t, "2025-11-03", d.AddDays(2).String())
	})
	t.Run("Should order dates with Before and After", func(t *testing.T) {
		a, _ := core.ParseDate("2025-10-03")
		b, _ := core.ParseDate("2025-10-07")
		assert.True(t, a.Before(b))
		assert.True(t, b.After(a))
		assert.False(t, a.After(a))
	})
}

func TestDate_At(t *testing.T) {
	t.Run("Should resolve a clock on a date in the given location", func(t *testing.T) {
		loc, err := time.LoadLocation("America/Indiana/Indianapolis")
		require.NoError(t, err)
		d, _ := core.ParseDate("2025-10-06")
		at := d.At(core.Clock{Hour: 9, Minute: 45}, loc)
		assert.Equal(t, "2025-10-06T09:45:00-04:00", at.Format(time.RFC3339))
	})
}

func TestDate_JSON(t *testing.T) {
	t.Run("Should round-trip through JSON", func(t *testing.T) {
		d, _ := core.ParseDate("2025-12-24")
		b, err := d.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"2025-12-24"`, string(b))
		var back core.Date
		require.NoError(t, back.UnmarshalJSON(b))
		assert.Equal(t, d, back)
	})
}

func TestParseClock(t *testing.T) {
	t.Run("Should parse 24-hour wall clock strings", func(t *testing.T) {
		c, err := core.ParseClock("09:45")
		require.NoError(t, err)
		assert.Equal(t, 9, c.Hour)
		assert.Equal(t, 45, c.Minute)
		assert.Equal(t, 585, c.Minutes())
	})
	t.Run("Should reject malformed input", func(t *testing.T) {
		_, err := core.ParseClock("9:45pm")
		assert.Error(t, err)
	})
}
