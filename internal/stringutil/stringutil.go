// Package stringutil holds small text helpers shared by error formatting
// and the CLI. Everything here is allocation-light and safe for arbitrary
// user-supplied input.
package stringutil

import (
	"fmt"
	"unicode/utf8"
)

// Truncate shortens s to at most max runes, appending "..." when anything
// was cut. A non-positive max means no limit. Cuts always land on a rune
// boundary.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// FormatValue renders v the way fmt's %v verb would and truncates the
// result to max runes. Error text embeds offending request values; a
// megabyte-sized input must not balloon logs or terminal output.
func FormatValue(v any, max int) string {
	return Truncate(fmt.Sprintf("%v", v), max)
}
