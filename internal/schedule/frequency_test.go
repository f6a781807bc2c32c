package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{"monthly", Monthly, false},
		{" Monthly ", Monthly, false},
		{"bi-annual", BiAnnual, false},
		{"Bi_Annual", BiAnnual, false},
		{"biannual", BiAnnual, false},
		{"ANNUAL", Annual, false},
		{"weekly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNextDue(t *testing.T) {
	last := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC), Monthly.NextDue(last))
	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), BiAnnual.NextDue(last))
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), Annual.NextDue(last))
}

func TestNextDueClampsToMonthEnd(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name string
		freq Frequency
		last time.Time
		want time.Time
	}{
		{"monthly from jan 31", Monthly, day(2025, 1, 31), day(2025, 2, 28)},
		{"monthly from jan 31 in a leap year", Monthly, day(2024, 1, 31), day(2024, 2, 29)},
		{"monthly from mar 31", Monthly, day(2025, 3, 31), day(2025, 4, 30)},
		{"monthly across the year end", Monthly, day(2025, 12, 31), day(2026, 1, 31)},
		{"bi-annual from aug 31", BiAnnual, day(2025, 8, 31), day(2026, 2, 28)},
		{"annual from feb 29", Annual, day(2024, 2, 29), day(2025, 2, 28)},
		{"annual into a leap year", Annual, day(2027, 2, 28), day(2028, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.freq.NextDue(tt.last))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Bi-Annual", BiAnnual.Label())
	assert.Equal(t, "Monthly", Monthly.Label())
	assert.Equal(t, "weekly", Frequency("weekly").Label())
}
