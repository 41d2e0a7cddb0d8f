package flags

import (
	"strings"
)

const (
	choicePlaceholderPrefix = "<"
	choicePlaceholderSuffix = ">"
	choiceSeparator         = "|"
)

// FormatChoiceUsage renders "`<DEFAULT|other>` description", upper-casing the default choice.
// Blank and repeated choices are skipped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	rendered := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		normalizedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, duplicate := seen[normalizedChoice]; duplicate {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			rendered = append(rendered, strings.ToUpper(normalizedChoice))
			continue
		}
		rendered = append(rendered, normalizedChoice)
	}

	placeholder := choicePlaceholderPrefix + strings.Join(rendered, choiceSeparator) + choicePlaceholderSuffix
	return formatPlaceholderUsage(placeholder, description)
}
