package catalog

import (
	"regexp"
	"strings"
)

const seoDescriptionMax = 150

var (
	htmlTag    = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// StripAfterPipe returns the trimmed part of title before the first "|".
func StripAfterPipe(title string) string {
	head, _, _ := strings.Cut(title, "|")
	return strings.TrimSpace(head)
}

// HTMLToText drops tags and collapses whitespace.
func HTMLToText(html string) string {
	s := htmlTag.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// SEODescription is the body text cut at the last "." inside the first 150
// characters, or the first 150 characters when there is no full stop.
func SEODescription(bodyHTML string) string {
	text := []rune(HTMLToText(bodyHTML))
	if len(text) <= seoDescriptionMax {
		return string(text)
	}
	cut := string(text[:seoDescriptionMax])
	if i := strings.LastIndex(cut, "."); i != -1 {
		return strings.TrimSpace(cut[:i+1])
	}
	return strings.TrimSpace(cut)
}

// MetaDescription is the body text, or fallback when the body is empty,
// truncated to max characters with a trailing ellipsis.
func MetaDescription(bodyHTML, fallback string, max int) string {
	text := HTMLToText(bodyHTML)
	if text == "" {
		text = fallback
	}
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return strings.TrimRight(string(runes[:max-1]), " \t\n") + "…"
	}
	return text
}
