package format

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Bold wraps escaped text in <b> tags.
func Bold(text string) string {
	return "<b>" + EscapeHTML(text) + "</b>"
}

// Italic wraps escaped text in <i> tags.
func Italic(text string) string {
	return "<i>" + EscapeHTML(text) + "</i>"
}

// Code wraps escaped text in <code> tags.
func Code(text string) string {
	return "<code>" + EscapeHTML(text) + "</code>"
}
