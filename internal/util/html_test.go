package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"<div>\n  Build\t&amp; ship\n</div>", "Build & ship"},
		{"&lt;p&gt;Escaped &amp;amp; markup&lt;/p&gt;", "Escaped & markup"},
		{"a&nbsp;b", "a b"},
		{"x < y and y > z", "x z"},
		{"<ul><li>one</li><li>two</li></ul>", "one two"},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StripHTML(c.in), c.in)
	}
}

func TestStripHTMLProperties(t *testing.T) {
	tag := regexp.MustCompile(`<[^>]*>`)
	inputs := []string{
		"<p>Hello</p>",
		"&lt;b&gt;bold&lt;/b&gt;",
		"&amp;lt;i&amp;gt;double&amp;lt;/i&amp;gt;",
		"&<b>amp;</b>lt;",
		"text with < lone bracket",
		"<a href='x'>link</a> &copy; 2024",
	}
	for _, in := range inputs {
		out := StripHTML(in)
		assert.False(t, tag.MatchString(out), "tags left in %q", out)
		assert.Equal(t, out, StripHTML(out), "not idempotent for %q", in)
		assert.NotContains(t, out, "  ")
	}
}

func TestStripHTMLPtr(t *testing.T) {
	assert.Equal(t, "", StripHTMLPtr(nil))
	s := "<i>x</i>"
	assert.Equal(t, "x", StripHTMLPtr(&s))
}
