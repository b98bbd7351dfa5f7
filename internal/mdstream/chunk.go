package mdstream

import (
	"bytes"
	"unicode/utf8"
)

// ChunkBuffer reassembles complete lines from arbitrarily split fragments.
// The zero value is ready to use.
type ChunkBuffer struct {
	lineBuf bytes.Buffer
}

// Feed adds a fragment and returns every complete line now available, each
// including its trailing newline. The incomplete remainder is kept for the
// next call unless isFinal is set, in which case it is returned as the last
// line without a newline.
func (b *ChunkBuffer) Feed(fragment string, isFinal bool) []string {
	b.lineBuf.WriteString(fragment)

	var lines []string
	for {
		line, err := b.lineBuf.ReadString('\n')
		if err != nil {
			// No complete line yet, put back what we read
			b.lineBuf.WriteString(line)
			break
		}
		lines = append(lines, line)
	}

	if isFinal && b.lineBuf.Len() > 0 {
		lines = append(lines, b.lineBuf.String())
		b.lineBuf.Reset()
	}
	return lines
}

// Pending returns the retained partial line.
func (b *ChunkBuffer) Pending() string {
	return b.lineBuf.String()
}

// Len reports the size of the retained partial line in bytes.
func (b *ChunkBuffer) Len() int {
	return b.lineBuf.Len()
}

// Reset discards the retained partial line.
func (b *ChunkBuffer) Reset() {
	b.lineBuf.Reset()
}

// takeComplete removes and returns the retained text plus fragment, keeping
// back a trailing incomplete UTF-8 sequence.
func (b *ChunkBuffer) takeComplete(fragment string) string {
	b.lineBuf.WriteString(fragment)
	data := b.lineBuf.Bytes()
	cut := len(data) - incompleteSuffix(data)
	out := string(data[:cut])
	rest := string(data[cut:])
	b.lineBuf.Reset()
	b.lineBuf.WriteString(rest)
	return out
}

// incompleteSuffix returns the length of a trailing partial rune in p, or 0.
func incompleteSuffix(p []byte) int {
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking.
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		c := p[len(p)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(p[len(p)-i:]) {
				return 0
			}
			return i
		}
	}
	return 0
}
