package services

import (
	"regexp"
	"strings"
)

var percentagePattern = regexp.MustCompile(`^[0-9]+%$`)

// IsValidPercentage reports whether text, once trimmed, is one or more ASCII
// digits followed by a single percent sign. The value is not bounded.
func IsValidPercentage(text string) bool {
	return percentagePattern.MatchString(strings.TrimSpace(text))
}
