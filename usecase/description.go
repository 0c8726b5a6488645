package usecase

import "strings"

const (
	maxTitleLen  = 100
	defaultTitle = "Untitled Video"
)

// DeriveDescription appends the platform's hashtag suffix to the base text,
// tag by tag, skipping tags the text already contains. The suffix policy is
// owned here, not by the drivers.
func DeriveDescription(base, hashtagSuffix string) string {
	out := strings.TrimSpace(base)
	for _, tag := range strings.Fields(hashtagSuffix) {
		if strings.Contains(out, tag) {
			continue
		}
		if out == "" {
			out = tag
		} else {
			out += " " + tag
		}
	}
	return out
}

// DeriveTitle builds a title from the description by truncating it to the
// platform's maximum length. Truncation counts runes so multi-byte text is
// not split mid-character.
func DeriveTitle(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return defaultTitle
	}
	runes := []rune(description)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen])
	}
	return description
}
