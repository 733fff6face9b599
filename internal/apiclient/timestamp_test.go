package apiclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampLayouts(t *testing.T) {
	cases := map[string]time.Time{
		`"2024-03-01T10:20:30Z"`:        time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		`"2024-03-01T10:20:30.123456"`:  time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC),
		`"2024-03-01"`:                  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		`"2024-03-01T10:20:30+05:30"`:   time.Date(2024, 3, 1, 4, 50, 30, 0, time.UTC),
	}
	for raw, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, ts.Equal(want), raw)
	}

	var empty Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.IsZero())

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}
