package console

import "regexp"

// FormattingMarker introduces a colour or style code in server output,
// e.g. "§a" for green or "§l" for bold.
const FormattingMarker = '§'

var formattingCode = regexp.MustCompile(`(?s)§.`)

// StripFormatting removes every formatting marker together with the one
// character that follows it. A marker at the very end of s is kept.
func StripFormatting(s string) string {
	return formattingCode.ReplaceAllString(s, "")
}
