package daterange_test

import (
	"rental/shared/daterange"
	"rental/shared/failure"
	"rental/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		startDate string
		endDate   string
		wantErr   bool
	}{
		{name: "single day", startDate: "20240601", endDate: "20240601"},
		{name: "multiple days", startDate: "20240601", endDate: "20240605"},
		{name: "dashed format", startDate: "2024-06-01", endDate: "20240605", wantErr: true},
		{name: "invalid month", startDate: "20241301", endDate: "20241305", wantErr: true},
		{name: "empty end", startDate: "20240601", endDate: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := daterange.Parse(tt.startDate, tt.endDate)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, failure.ReasonValidation, failure.GetReason(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, 0, period.Start.Hour())
			assert.Equal(t, 0, period.Start.Minute())
			assert.Equal(t, 23, period.End.Hour())
			assert.Equal(t, 59, period.End.Minute())
			assert.Equal(t, 59, period.End.Second())
			assert.Equal(t, tt.startDate, daterange.Format(period.Start))
			assert.Equal(t, tt.endDate, daterange.Format(period.End))
		})
	}
}

func TestRange_Validate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, timezone.GetLocation())

	tests := []struct {
		name    string
		period  daterange.Range
		maxDays int
		wantErr bool
	}{
		{name: "one day", period: daterange.FromDates(start, start), maxDays: 90},
		{name: "exactly ninety calendar days", period: daterange.FromDates(start, start.AddDate(0, 0, 89)), maxDays: 90},
		{name: "ninety one calendar days", period: daterange.FromDates(start, start.AddDate(0, 0, 91)), maxDays: 90, wantErr: true},
		{name: "default limit applies", period: daterange.FromDates(start, start.AddDate(0, 0, 120)), maxDays: 0, wantErr: true},
		{name: "end before start", period: daterange.Range{Start: start.AddDate(0, 0, 2), End: start}, maxDays: 90, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate(tt.maxDays)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	period, err := daterange.Default("", "", 30)
	require.NoError(t, err)

	today := daterange.StartOfDay(timezone.Now())
	assert.Equal(t, today, period.Start)
	assert.Equal(t, daterange.EndOfDay(today.AddDate(0, 0, 30)), period.End)

	period, err = daterange.Default("20240601", "", 30)
	require.NoError(t, err)
	assert.Equal(t, "20240701", daterange.Format(period.End))

	_, err = daterange.Default("2024", "", 30)
	assert.Error(t, err)
}

func TestRange_Dates(t *testing.T) {
	period, err := daterange.Parse("20240630", "20240702")
	require.NoError(t, err)

	assert.Equal(t, []string{"20240630", "20240701", "20240702"}, period.Dates())
}

func TestRange_Clip(t *testing.T) {
	window, err := daterange.Parse("20240601", "20240630")
	require.NoError(t, err)

	inside, err := daterange.Parse("20240528", "20240603")
	require.NoError(t, err)

	clipped, ok := inside.Clip(window)
	assert.True(t, ok)
	assert.Equal(t, "20240601", daterange.Format(clipped.Start))
	assert.Equal(t, "20240603", daterange.Format(clipped.End))

	outside, err := daterange.Parse("20240701", "20240703")
	require.NoError(t, err)

	_, ok = outside.Clip(window)
	assert.False(t, ok)
}

func TestRange_TotalDays(t *testing.T) {
	period, err := daterange.Parse("20240606", "20240610")
	require.NoError(t, err)

	assert.InDelta(t, 5.0, period.TotalDays(), 0.001)
	assert.True(t, period.Contains(period.Start))
	assert.True(t, period.Contains(period.End))
	assert.False(t, period.Contains(period.End.Add(time.Second)))
}
