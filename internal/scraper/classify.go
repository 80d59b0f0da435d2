package scraper

import (
	"regexp"
	"strings"
)

// $11.1 | $111,111.11 | 11 dollars | 11 USD
var moneyPattern = regexp.MustCompile(`(?i)\$\d+(?:,\d+)*(?:\.\d)?|\d+ dollars|\d+ USD`)

func ContainsMoney(text string) bool {
	return moneyPattern.MatchString(text)
}

// CountOccurrences считает непересекающиеся вхождения term в заголовке и описании
func CountOccurrences(title, description, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(title, term) + strings.Count(description, term)
}
