package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		cancelled bool
		approved  bool
		signedOff bool
		want      ProjectStatus
	}{
		{"fresh project", false, false, false, StatusSubmitted},
		{"approved", false, true, false, StatusOngoing},
		{"signed off", false, true, true, StatusComplete},
		{"signed off without approval", false, false, true, StatusComplete},
		{"cancelled wins over everything", true, true, true, StatusCancelled},
		{"cancelled fresh project", true, false, false, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.cancelled, tt.approved, tt.signedOff))
		})
	}
}

func TestParseCode(t *testing.T) {
	t.Run("parses a structured code", func(t *testing.T) {
		lake, ptype, year, seq, err := ParseCode("LHA_IA12_111")
		require.NoError(t, err)
		assert.Equal(t, "LHA", lake)
		assert.Equal(t, "IA", ptype)
		assert.Equal(t, 2012, year)
		assert.Equal(t, 111, seq)
	})

	t.Run("two-letter lake codes", func(t *testing.T) {
		lake, _, _, _, err := ParseCode("LS_GN05_042")
		require.NoError(t, err)
		assert.Equal(t, "LS", lake)
	})

	t.Run("years at or above 60 are in the 1900s", func(t *testing.T) {
		_, _, year, _, err := ParseCode("LHA_IA67_001")
		require.NoError(t, err)
		assert.Equal(t, 1967, year)

		_, _, year, _, err = ParseCode("LHA_IA59_001")
		require.NoError(t, err)
		assert.Equal(t, 2059, year)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		for _, code := range []string{
			"",
			"LHA_IA12_11",
			"lha_IA12_111",
			"LHA-IA12-111",
			"LHAX_IA12_111",
			"LHA_IA12_1111",
		} {
			_, _, _, _, err := ParseCode(code)
			assert.Error(t, err, "code %q", code)
		}
	})
}
