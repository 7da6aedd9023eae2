package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minItemLength is the rune count an extracted item must exceed.
const minItemLength = 5

var (
	numberedItem = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.+?)\s*$`)
	bulletItem   = regexp.MustCompile(`(?m)^\s*[•\-*]\s*(.+?)\s*$`)
	keywordItem  = regexp.MustCompile(`(?im)\b(?:todo|task|action item|please|reminder|follow up|need to|remember to)[:\s]+(.+?)\s*$`)
)

// ExtractItems pulls list-style action items out of a message body: numbered
// lines, bullet lines, then keyword phrases. Items that are too short or that
// end with a colon (section headings) are skipped. The result is de-duplicated
// and keeps first-seen order.
func ExtractItems(body string) []string {
	var items []string
	seen := make(map[string]bool)

	for _, re := range []*regexp.Regexp{numberedItem, bulletItem, keywordItem} {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			item := Normalize(m[1])
			if utf8.RuneCountInString(item) <= minItemLength || strings.HasSuffix(item, ":") {
				continue
			}
			key := strings.ToLower(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, item)
		}
	}

	return items
}
