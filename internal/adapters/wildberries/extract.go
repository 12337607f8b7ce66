package wildberries

import (
	"regexp"
	"strconv"
	"strings"
)

// URL patterns come before the bare-id pattern so digits inside a broken URL
// are never taken for an id.
var productIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/catalog/(\d+)`),
	regexp.MustCompile(`(?i)[?&](?:nm|card)=(\d+)`),
	regexp.MustCompile(`^(\d+)$`),
}

// ExtractProductID parses a marketplace product URL or a bare numeric id.
func ExtractProductID(input string) (int64, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return 0, false
	}
	for _, pattern := range productIDPatterns {
		match := pattern.FindStringSubmatch(value)
		if len(match) < 2 {
			continue
		}
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		return id, true
	}
	return 0, false
}
