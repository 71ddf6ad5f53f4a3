package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	cases := map[string]*time.Time{
		"2024-03-05 14:07:00":  &want,
		"2024-03-05 14:07":     &want,
		"05.03.2024 14:07":     &want,
		"05/03/2024 14:07":     &want,
		"2024-03-05T14:07:00Z": &want,
		"2024-03-05T14:07:00":  &want,

		"2024-03-05 17:07:00+03:00":     &want,
		"2024-03-05 17:07:00.000+03:00": &want,
		"":                     nil,
		"yesterday":            nil,
	}
	for in, expected := range cases {
		got := ParseTimestamp(in)
		if expected == nil {
			require.Nil(t, got, in)
			continue
		}
		require.NotNil(t, got, in)
		require.True(t, expected.Equal(*got), in)
	}
}
