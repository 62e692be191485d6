package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate(" 2024-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("2024-06-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = ParseDate("06/01/2024")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseDateEnd(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"", nil},
		{"2024-06-30", ptr(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))},
		{" 2024-12-31 ", ptr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"2024-06-30T12:00:00Z", ptr(time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC))},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateEnd(tt.in)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}

	_, err := ParseDateEnd("30.06.2024")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStartOfWeek(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))

	monday := time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), startOfWeek(monday))
}

func TestRequireTitle(t *testing.T) {
	s, err := requireTitle("title", "  ok ")
	require.NoError(t, err)
	assert.Equal(t, "ok", s)

	long := make([]rune, maxTitleLen+1)
	for i := range long {
		long[i] = 'é'
	}
	_, err = requireTitle("title", string(long))
	assert.ErrorIs(t, err, ErrValidation)
}
