// Package format escapes text for Telegram parse modes.
package format

import (
	"fmt"
	"regexp"
)

// Telegram markdown dialects.
const (
	MarkdownV1 = 1
	MarkdownV2 = 2
)

var (
	mdV1Specials = regexp.MustCompile("[_*`\\[]")
	mdV2Specials = regexp.MustCompile(`[_*\[\]()~` + "`" + `>#+\-=|{}.!\\]`)
)

// EscapeMarkdown backslash-escapes the characters that are special in the given dialect.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Specials.ReplaceAllString(text, `\$0`), nil
	case MarkdownV2:
		return mdV2Specials.ReplaceAllString(text, `\$0`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// Markdown escapes text for the legacy Markdown mode.
func Markdown(text string) string {
	out, _ := EscapeMarkdown(text, MarkdownV1)
	return out
}
