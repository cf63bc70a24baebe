package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgInt(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]string
		want    int64
		wantErr bool
	}{
		{"Missing", nil, 7, false},
		{"Plain", map[string]string{"n": "42"}, 42, false},
		{"Kilo", map[string]string{"n": "2k"}, 2048, false},
		{"Mega", map[string]string{"n": "1M"}, 1 << 20, false},
		{"Giga", map[string]string{"n": " 1g "}, 1 << 30, false},
		{"Invalid", map[string]string{"n": "lots"}, 0, true},
		{"Negative", map[string]string{"n": "-2k"}, -2048, false},
		{"Overflow", map[string]string{"n": "9999999999g"}, 0, true},
		{"NegativeOverflow", map[string]string{"n": "-9999999999g"}, 0, true},
		{"MaxPlain", map[string]string{"n": "9223372036854775807"}, math.MaxInt64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArgInt(tt.args, "n", 7)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgBool(t *testing.T) {
	for raw, want := range map[string]bool{"1": true, "TRUE": true, "yes": true, "on": true, "0": false, "false": false, "no": false, "off": false} {
		got, err := ArgBool(map[string]string{"b": raw}, "b", !want)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	got, err := ArgBool(nil, "b", true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = ArgBool(map[string]string{"b": "maybe"}, "b", false)
	assert.Error(t, err)
}
