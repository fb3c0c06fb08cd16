package imagegen

import (
	"strings"
)

const DefaultSize = "1024x1024"

var validSizes = []string{
	"1024x1024", "1440x720", "768x1344", "864x1152", "1344x768", "1152x864", "720x1440",
}

func ValidSizes() []string {
	return append([]string(nil), validSizes...)
}

func IsValidSize(size string) bool {
	for _, s := range validSizes {
		if s == size {
			return true
		}
	}
	return false
}

// ResolveSize returns the allowed size token appearing earliest in text, or DefaultSize.
func ResolveSize(text string) string {
	best, bestIdx := DefaultSize, -1
	for _, s := range validSizes {
		idx := strings.Index(text, s)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx {
			best, bestIdx = s, idx
		}
	}
	return best
}
