package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("padded", func(t *testing.T) {
		d, err := ParseDate("2026-09-01")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("unpadded", func(t *testing.T) {
		d, err := ParseDate("2026-9-1")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, bad := range []string{"", "2026", "2026-13-01", "2026-00-10", "2026-01-40", "soon"} {
			_, err := ParseDate(bad)
			assert.Error(t, err, bad)
		}
	})
}

func TestCivilAndQueryDate(t *testing.T) {
	d := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-05", CivilDate(d))
	assert.Equal(t, "2026-3-5", QueryDate(d))

	// Round trip through the unpadded link format.
	back, err := ParseDate(QueryDate(d))
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

func TestOffsetMinutes(t *testing.T) {
	at := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

	ist, err := OffsetMinutes("Asia/Kolkata", at)
	require.NoError(t, err)
	assert.Equal(t, 330, ist)

	est, err := OffsetMinutes("America/New_York", at)
	require.NoError(t, err)
	assert.Equal(t, -300, est)

	utc, err := OffsetMinutes("UTC", at)
	require.NoError(t, err)
	assert.Equal(t, 0, utc)

	// DST: New York in July is UTC-4.
	july := time.Date(2026, time.July, 15, 12, 0, 0, 0, time.UTC)
	edt, err := OffsetMinutes("America/New_York", july)
	require.NoError(t, err)
	assert.Equal(t, -240, edt)
}

func TestSecondsToMinutes(t *testing.T) {
	assert.Equal(t, 30, SecondsToMinutes(1800))
	assert.Equal(t, 0, SecondsToMinutes(0))
}

func TestMinutesToHuman(t *testing.T) {
	assert.Equal(t, "45m", MinutesToHuman(45))
	assert.Equal(t, "1h", MinutesToHuman(60))
	assert.Equal(t, "1h 30m", MinutesToHuman(90))
	assert.Equal(t, "0m", MinutesToHuman(0))
}

func TestSupportedZones(t *testing.T) {
	zones := SupportedZones()
	assert.NotEmpty(t, zones)
	assert.True(t, IsSupportedZone("UTC"))
	assert.True(t, IsSupportedZone("Asia/Kolkata"))
	assert.False(t, IsSupportedZone("Mars/Olympus_Mons"))

	// Every listed zone must actually load.
	for _, zone := range zones {
		_, err := time.LoadLocation(zone)
		assert.NoError(t, err, zone)
	}
}

func TestFormatSlotClock(t *testing.T) {
	at := time.Date(2026, time.September, 1, 13, 5, 0, 0, time.UTC)
	assert.Equal(t, "13:05", FormatSlotClock(at, "UTC", true))
	assert.Equal(t, "1:05 PM", FormatSlotClock(at, "UTC", false))
	assert.Equal(t, "18:35", FormatSlotClock(at, "Asia/Kolkata", true))
}
