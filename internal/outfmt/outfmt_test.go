package outfmt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", Text},
		{"text", Text},
		{"json", JSON},
		{"jsonl", JSONL},
		{"ndjson", JSONL},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := Parse("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"yaml"`)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "json", JSON.String())
	assert.Equal(t, "jsonl", JSONL.String())
}

func TestOptionsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Options{}, FromContext(ctx))
	assert.False(t, IsJSON(ctx))

	o := Options{Mode: JSONL, Query: ".data[]", Compact: true}
	ctx = WithOptions(ctx, o)
	assert.Equal(t, o, FromContext(ctx))
	assert.True(t, IsJSON(ctx))
}
