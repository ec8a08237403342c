package giveaway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"minutes", "30m", 30 * time.Minute, false},
		{"hours", "6h", 6 * time.Hour, false},
		{"days", "2d", 48 * time.Hour, false},
		{"compound", "1d12h", 36 * time.Hour, false},
		{"weeks", "1w", 7 * 24 * time.Hour, false},
		{"spaces and case", " 1D 2H ", 26 * time.Hour, false},
		{"empty", "", 0, true},
		{"garbage", "soon", 0, true},
		{"zero", "0m", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{time.Minute, 90 * time.Minute, 36 * time.Hour} {
		got, err := ParseDuration(FormatDuration(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}
