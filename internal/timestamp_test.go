package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt96TimestampDecoder(t *testing.T) {
	tests := []struct {
		name      string
		dayNanos  int64
		julianDay uint32
		expected  time.Time
	}{
		{
			name:      "reference day",
			dayNanos:  0,
			julianDay: 2457755,
			expected:  time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "one hour one minute one second on the next day",
			dayNanos:  3661 * int64(time.Second),
			julianDay: 2457756,
			expected:  time.Date(2017, 1, 2, 1, 1, 1, 0, time.UTC),
		},
		{
			name:      "microseconds are kept",
			dayNanos:  int64(23*time.Hour + 59*time.Minute + 59*time.Second + 999999*time.Microsecond),
			julianDay: 2457755,
			expected:  time.Date(2017, 1, 1, 23, 59, 59, 999999000, time.UTC),
		},
		{
			name:      "sub-microsecond nanos are truncated",
			dayNanos:  int64(time.Second) + 1999,
			julianDay: 2457755,
			expected:  time.Date(2017, 1, 1, 0, 0, 1, 1000, time.UTC),
		},
		{
			name:      "before reference day",
			dayNanos:  int64(12 * time.Hour),
			julianDay: 2455198,
			expected:  time.Date(2010, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:      "unix epoch",
			dayNanos:  0,
			julianDay: 2440588,
			expected:  time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "leap day",
			dayNanos:  0,
			julianDay: 2458909,
			expected:  time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int96TimestampDecoder(int96(tt.dayNanos, tt.julianDay))
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestInt96TimestampDecoder_NanosOutOfRange(t *testing.T) {
	for _, nanos := range []int64{-1, nanosPerDay, nanosPerDay + 1, -nanosPerDay} {
		_, err := Int96TimestampDecoder(int96(nanos, 2457755))

		var formatErr *FormatError
		require.ErrorAs(t, err, &formatErr, "nanos=%d", nanos)
	}

	got, err := Int96TimestampDecoder(int96(nanosPerDay-1, 2457755))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 1, 1, 23, 59, 59, 999999000, time.UTC), got)
}

func TestNanosToTime(t *testing.T) {
	hour, minute, sec, micros := nanosToTime(3661*int64(time.Second) + 123456789)
	assert.Equal(t, []int{1, 1, 1, 123456}, []int{hour, minute, sec, micros})
}
