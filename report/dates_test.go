package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/opsreport/report"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Friday, 01 March 2024", report.FormatDate("2024-03-01"))
	assert.Equal(t, "N/A", report.FormatDate(""))
	assert.Equal(t, "someday", report.FormatDate("someday"))
}

func TestFormatDateShort(t *testing.T) {
	assert.Equal(t, "Fri, 01 Mar", report.FormatDateShort("2024-03-01"))
	assert.Equal(t, "N/A", report.FormatDateShort(""))
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

	tests := map[string]string{
		"2024-02-29":   "2024-02-29",
		" 2024-02-29 ": "2024-02-29",
		"today":        "2024-03-05",
		"yesterday":    "2024-03-04",
		"tomorrow":     "2024-03-06",
	}
	for input, want := range tests {
		got, err := report.ParseDate(input, now)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

	_, err := report.ParseDate("", now)
	assert.ErrorIs(t, err, report.ErrInvalidDate)

	_, err = report.ParseDate("banana", now)
	assert.ErrorIs(t, err, report.ErrInvalidDate)
	var dateErr *report.DateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "banana", dateErr.Input)
}

func TestParseDate_RejectsSurroundingText(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

	for _, input := range []string{"delete foo today bar", "today please", "since yesterday"} {
		_, err := report.ParseDate(input, now)
		assert.ErrorIs(t, err, report.ErrInvalidDate, input)
	}
}

func TestToday(t *testing.T) {
	assert.Equal(t, "2024-03-05", report.Today(time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC)))
}
