package preview

import (
	"net/url"
	"strings"
	"unicode"
)

// InitialsAvatarURL returns a placeholder avatar URL rendering the initials
// of name, e.g. {base}/avatars/initials?name=JD.
func InitialsAvatarURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/avatars/initials?" + url.Values{"name": {Initials(name)}}.Encode()
}

// Initials returns the upper-cased first letters of the first two words of
// name, or "?" when name has no letters.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
