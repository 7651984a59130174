package normalize

import (
	"regexp"
	"strings"
)

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:no\.?\s*)?(?:referensi|ref|invoice)\s*[:#]\s*[^\s)\]]*`),
	regexp.MustCompile(`(?i)\bINV[-/#]?\d[\w/-]*`),
}

var (
	emptyBracketsRE = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
)

// CleanDescription removes reference-number noise from a line item
// description and collapses whitespace. Case is preserved since part
// numbers are case-significant.
func CleanDescription(s string) string {
	for _, re := range referencePatterns {
		s = re.ReplaceAllString(s, " ")
	}
	s = emptyBracketsRE.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -,;:|")
}
