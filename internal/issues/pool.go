package issues

import (
	"strings"
	"sync"
)

var stringBuilderPool = sync.Pool{
	New: func() any {
		return new(strings.Builder)
	},
}

// getStringBuilder retrieves a builder from the pool and resets it.
func getStringBuilder() *strings.Builder {
	sb := stringBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// putStringBuilder returns a builder to the pool.
func putStringBuilder(sb *strings.Builder) {
	if sb == nil {
		return
	}
	stringBuilderPool.Put(sb)
}

// FormatPointer efficiently formats a JSON-pointer style path from segments,
// e.g. FormatPointer("photoUrls", "1") -> "/photoUrls/1".
func FormatPointer(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}

	sb := getStringBuilder()
	for _, seg := range segments {
		sb.WriteByte('/')
		sb.WriteString(seg)
	}
	result := sb.String()
	putStringBuilder(sb)
	return result
}
