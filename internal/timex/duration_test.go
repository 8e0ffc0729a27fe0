package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "duration string", input: `"90m"`, want: 90 * time.Minute},
		{name: "integer nanoseconds", input: `3600000000000`, want: time.Hour},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "bad type", input: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	d := Duration{Duration: 36 * time.Hour}
	b, err := json.Marshal(d)
	require.NoError(t, err)

	var back Duration
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d.Duration, back.Duration)
}
