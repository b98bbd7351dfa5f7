package mdstream

import (
	"fmt"
	"regexp"
	"sync"
)

// Trigger characters that can start markup in prose.
const triggerChars = "`*_"

// defaultCodeFlushThreshold is the buffered code size, in bytes, above which
// a partial code line is emitted without waiting for its newline.
const defaultCodeFlushThreshold = 20

// Patterns are compiled once; they are string literals and covered by
// TestPatternsCompile.
var (
	// boldPattern requires a non-space character just inside each delimiter.
	boldPattern = regexp.MustCompile(`\*\*(\S(?:[^\n]*?\S)?)\*\*|__(\S(?:[^\n]*?\S)?)__`)

	// inlineCodePattern matches a backtick-delimited span on one line.
	inlineCodePattern = regexp.MustCompile("`+([^`\n]+)`+")

	// leadingCodePattern is inlineCodePattern anchored at the start of text.
	leadingCodePattern = regexp.MustCompile("^`+([^`\n]+)`+")
)

var (
	closerMu    sync.Mutex
	closerCache = map[int]*regexp.Regexp{}
)

// closerPattern returns a pattern matching a closing fence of at least n
// backticks at the start of a line, followed by whitespace or end of input.
func closerPattern(n int) *regexp.Regexp {
	if n < 3 {
		n = 3
	}
	closerMu.Lock()
	defer closerMu.Unlock()
	if re, ok := closerCache[n]; ok {
		return re
	}
	re := regexp.MustCompile(fmt.Sprintf("(?:^|\\n)[ \\t]*(`{%d,})([ \\t\\r\\n]|$)", n))
	closerCache[n] = re
	return re
}
