package resolve_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salmonumbrella/openai-cli/internal/resolve"
)

var models = []string{"gpt-3.5-turbo", "gpt-4", "text-embedding-ada-002", "whisper-1", "dall-e-3"}

func TestMatchAll(t *testing.T) {
	matches := resolve.MatchAll("EMBED", models, 5)
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "text-embedding-ada-002", matches[0].ID)
	}

	gpt := resolve.MatchAll("gpt", models, 1)
	assert.Len(t, gpt, 1)

	assert.Nil(t, resolve.MatchAll("  ", models, 5))
	assert.Nil(t, resolve.MatchAll("gpt", nil, 5))
	assert.Nil(t, resolve.MatchAll("gpt", models, 0))
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"subsequence", "whisper", []string{"whisper-1"}},
		{"transposition", "gtp-4", []string{"gpt-4"}},
		{"typo", "dall-e-2", []string{"dall-e-3"}},
		{"nothing close", "claude", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve.Suggest(tt.query, models, 3)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggest_SkipsExactID(t *testing.T) {
	got := resolve.Suggest("GPT-4", []string{"gpt-4"}, 3)
	assert.Empty(t, got)
}

func TestNotFoundError(t *testing.T) {
	err := &resolve.NotFoundError{Query: "gtp-4", Suggestions: []string{"gpt-4"}}
	assert.Equal(t, `no match found for "gtp-4" (did you mean gpt-4?)`, err.Error())

	bare := &resolve.NotFoundError{Query: "x"}
	assert.Equal(t, `no match found for "x"`, bare.Error())

	var nf *resolve.NotFoundError
	assert.True(t, errors.As(error(err), &nf))
}
