package mdstream

import (
	"math/rand"
	"testing"
)

func plain(s string) Segment { return Segment{Text: s, Style: StylePlain} }
func bold(s string) Segment  { return Segment{Text: s, Style: StyleBold} }
func code(s string) Segment  { return Segment{Text: s, Style: StyleInlineCode} }

func text(segs ...Segment) Element { return TextElement(Run(segs)) }

func block(lang, content string, n int) Element {
	return CodeBlockElement(lang, content, n)
}

// parseFull classifies input delivered as a single fragment.
func parseFull(t *testing.T, input string, opts ...Option) []Element {
	t.Helper()
	return parseChunks(t, []string{input}, opts...)
}

// parseChunks feeds each chunk in order and then flushes.
func parseChunks(t *testing.T, chunks []string, opts ...Option) []Element {
	t.Helper()
	p := NewParser(opts...)
	var out []Element
	for _, c := range chunks {
		out = append(out, p.ProcessChunk(c, false)...)
	}
	out = append(out, p.Flush()...)
	return Coalesce(out)
}

// byteChunks splits input into single bytes, splitting multi-byte runes.
func byteChunks(input string) []string {
	chunks := make([]string, len(input))
	for i := 0; i < len(input); i++ {
		chunks[i] = input[i : i+1]
	}
	return chunks
}

// randomChunks splits input at random byte offsets, including empty chunks.
func randomChunks(rng *rand.Rand, input string, maxChunkSize int) []string {
	var chunks []string
	pos := 0
	for pos < len(input) {
		size := rng.Intn(maxChunkSize + 1)
		if pos+size > len(input) {
			size = len(input) - pos
		}
		chunks = append(chunks, input[pos:pos+size])
		pos += size
	}
	return chunks
}
