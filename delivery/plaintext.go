package delivery

import (
	"strings"
	"unicode/utf8"

	"github.com/jaytaylor/html2text"
)

// PlainText renders an HTML notice body as readable text. When conversion
// fails the markup is returned unchanged; a rough text part is better than
// none.
func PlainText(body string) string {
	text, err := html2text.FromString(body, html2text.Options{OmitLinks: true})
	if err != nil {
		return body
	}
	return strings.TrimSpace(text)
}

// preview returns at most n runes of s on a single line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
