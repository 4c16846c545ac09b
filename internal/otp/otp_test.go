package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		wantLength int
	}{
		{name: "default length", length: 0, wantLength: DefaultLength},
		{name: "six digits", length: 6, wantLength: 6},
		{name: "four digits", length: 4, wantLength: 4},
		{name: "negative falls back to default", length: -3, wantLength: DefaultLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.length)

			code, err := g.Generate()
			require.NoError(t, err)
			assert.Len(t, code, tt.wantLength)
			for _, r := range code {
				assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
			}
		})
	}
}

func TestGenerator_CodesVary(t *testing.T) {
	g := NewGenerator(6)

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}

	// 20 identical 6-digit draws from a CSPRNG is effectively impossible.
	assert.Greater(t, len(seen), 1, "generator returned the same code every time")
}
