package truncate

import "strings"

// Preview renders the end of a prompt on one line for log output. The newest
// turns are at the end, so the head is what gets cut.
func Preview(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	flat := []rune(strings.Join(strings.Fields(text), " "))
	switch {
	case len(flat) <= maxLen:
		return string(flat)
	case maxLen < 3:
		return string(flat[len(flat)-maxLen:])
	default:
		return "..." + string(flat[len(flat)-maxLen+3:])
	}
}
