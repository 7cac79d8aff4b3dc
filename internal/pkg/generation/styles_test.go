package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKnownStyle(t *testing.T) {
	for _, s := range AllStyles {
		assert.True(t, IsKnownStyle(s), "style %q should be known", s)
	}
	assert.False(t, IsKnownStyle(Style("vintage")))
	assert.False(t, IsKnownStyle(Style("")))
	// Styles are case sensitive.
	assert.False(t, IsKnownStyle(Style("LinkedIn")))
}

func TestPromptForStyle(t *testing.T) {
	seen := make(map[string]Style)
	for _, s := range AllStyles {
		prompt := PromptForStyle(s)
		assert.NotEmpty(t, prompt)
		assert.True(t, strings.HasPrefix(prompt, "Transform this person into"), "prompt for %q has unexpected shape", s)
		if prev, dup := seen[prompt]; dup {
			t.Errorf("styles %q and %q share a prompt", prev, s)
		}
		seen[prompt] = s
	}
}

func TestPromptForStyle_UnknownFallsBackToLinkedIn(t *testing.T) {
	assert.Equal(t, PromptForStyle(StyleLinkedIn), PromptForStyle(Style("vintage")))
	assert.Equal(t, PromptForStyle(StyleLinkedIn), PromptForStyle(Style("")))
}
