package util

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML turns a job description into plain text: entities are decoded,
// tags become spaces, whitespace runs collapse to one space and the result is
// trimmed. Decoding runs until nothing changes so escaped markup such as
// "&lt;b&gt;" is stripped too, which keeps StripHTML(StripHTML(x)) == StripHTML(x).
func StripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	for {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}
	text = htmlTagRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// StripHTMLPtr treats a nil description as empty.
func StripHTMLPtr(raw *string) string {
	if raw == nil {
		return ""
	}
	return StripHTML(*raw)
}
