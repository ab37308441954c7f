package cmd

import (
	"strings"

	"github.com/salmonumbrella/openai-cli/internal/resolve"
)

const maxSuggestDistance = 3

// suggestCommand finds the command name closest to unknown. A typo within
// maxSuggestDistance wins; otherwise a name that unknown abbreviates.
func suggestCommand(unknown string, commands []string) string {
	if i := resolve.Nearest(unknown, commands, maxSuggestDistance); i >= 0 {
		return commands[i]
	}
	prefix := strings.ToLower(strings.TrimSpace(unknown))
	if prefix == "" {
		return ""
	}
	for _, m := range resolve.MatchAll(prefix, commands, len(commands)) {
		if strings.HasPrefix(strings.ToLower(m.ID), prefix) {
			return m.ID
		}
	}
	return ""
}

// suggestFlag finds the flag closest to unknown, comparing names without
// their leading dashes.
func suggestFlag(unknown string, flagNames []string) string {
	bare := make([]string, len(flagNames))
	for i, name := range flagNames {
		bare[i] = strings.TrimLeft(name, "-")
	}
	if i := resolve.Nearest(strings.TrimLeft(unknown, "-"), bare, maxSuggestDistance); i >= 0 {
		return flagNames[i]
	}
	return ""
}
