package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "", want: StatusPending},
		{in: "  ", want: StatusPending},
		{in: "Selesai", want: StatusResolved},
		{in: "Proses", want: StatusInProgress},
		{in: " Pending ", want: StatusPending},
		{in: "Done", wantErr: true},
		{in: "selesai", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_BadgeClass(t *testing.T) {
	assert.Equal(t, "bg-success", StatusResolved.BadgeClass())
	assert.Equal(t, "bg-warning text-dark", StatusInProgress.BadgeClass())
	assert.Equal(t, "bg-secondary", StatusPending.BadgeClass())
}

func TestReportUpdate_Apply(t *testing.T) {
	uploaded := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r := Report{
		ID:         "id-1",
		PhotoURL:   "http://cdn/a.jpg",
		Substation: "G1",
		Fault:      "Overload",
		Status:     StatusPending,
		UploadedAt: uploaded,
	}

	t.Run("empty update is a no-op", func(t *testing.T) {
		u := ReportUpdate{}
		assert.True(t, u.IsEmpty())
		got := r
		u.Apply(&got)
		assert.Equal(t, r, got)
	})

	t.Run("only whitelisted fields change", func(t *testing.T) {
		st := StatusResolved
		repair := "Ganti trafo"
		u := ReportUpdate{Status: &st, Repair: &repair}
		assert.False(t, u.IsEmpty())

		got := r
		u.Apply(&got)
		assert.Equal(t, StatusResolved, got.Status)
		assert.Equal(t, "Ganti trafo", got.Repair)
		assert.Equal(t, "G1", got.Substation)
		assert.Equal(t, r.PhotoURL, got.PhotoURL)
		assert.Equal(t, uploaded, got.UploadedAt)
	})
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	ts := time.Date(2024, 3, 9, 1, 5, 0, 0, time.UTC)

	assert.Equal(t, "09/03/2024 08.05", FormatTime(ts, loc))
	assert.Equal(t, "09/03/2024 01.05", FormatTime(ts, nil))
	assert.Equal(t, "-", FormatTime(time.Time{}, loc))
}

func TestParseInput(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)

	got, err := ParseInput("2024-03-09T08:05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 1, 5, 0, 0, time.UTC), got)
	assert.Equal(t, "2024-03-09T08:05", FormatInput(got, loc))

	got, err = ParseInput("2024-03-09T08:05:30", loc)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Second())

	got, err = ParseInput("", loc)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	assert.Equal(t, "", FormatInput(got, loc))

	_, err = ParseInput("09/03/2024", loc)
	assert.Error(t, err)
}
