package simplesocial

import (
	"strings"
	"unicode"
)

// ParseTags turns a user-typed tag string into the stored tag list.
//
// Every whitespace character is removed and the remainder is split on commas.
// Entries are neither de-duplicated nor dropped when empty, so "a,,b" yields
// three tags. An empty input yields an empty, non-nil slice.
func ParseTags(raw string) []string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if compact == "" {
		return []string{}
	}
	return strings.Split(compact, ",")
}
