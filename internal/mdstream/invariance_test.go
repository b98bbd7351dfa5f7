package mdstream

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var invarianceInputs = []struct {
	name  string
	input string
}{
	{"plain", "Hello, world.\nSecond line.\n"},
	{"bold", "This is **very** important and __so__ is this.\n"},
	{"inline code", "Call `fmt.Println` or ``os.Exit`` now.\n"},
	{"fence with language", "Intro:\n\n```go\nfmt.Println(\"hi\")\n```\n\nAfter.\n"},
	{"split language tag", "He said ```x=1` then:\n```python\ndef f(): pass\n```\ndone"},
	{"nested fence", "````md\n```\ninner\n```\n````\n"},
	{"unterminated fence", "Look:\n```rust\nfn main() {\n    println!(\"hi\");\n"},
	{"empty fence", "```\n\n```\nText after.\n"},
	{"mid-line fences", "Code: ```\nx\n```\nsee ```y``` and use ``` to fence\n"},
	{"crlf", "Line one\r\n```js\r\nlet a = 1;\r\n```\r\nend\r\n"},
	{"unicode", "Grüße **Welt** 😀 `naïve`\n```\nπ ≈ 3.14\n```\n"},
	{"underscores", "snake_case and __dunder__ names\n"},
	{"stray backticks", "a ` b `` c\n"},
	{"blank runs", "\n\n\nstart\n\n\n```\ncode\n```\n\n\n\nend\n\n"},
	{"long code line", "```\n" + "0123456789012345678901234567890123456789\n```\n"},
	{"indented fence", "- item\n  ```sh\n  ls\n  ```\n"},
	{"trailing spaces", "word   \n```\nx   \n```   \ntail   "},
}

// assertChunkingInvariant verifies that a chunking produces the same
// coalesced elements as a single fragment.
func assertChunkingInvariant(t *testing.T, name string, want []Element, chunks []string, opts ...Option) {
	t.Helper()
	got := parseChunks(t, chunks, opts...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s: chunking invariant FAILED\nchunks: %q\n(-want +got):\n%s", name, chunks, diff)
	}
}

func TestChunkingInvariant_ByteByByte(t *testing.T) {
	for _, tt := range invarianceInputs {
		t.Run(tt.name, func(t *testing.T) {
			want := parseFull(t, tt.input)
			assertChunkingInvariant(t, "bytes", want, byteChunks(tt.input))
			assertChunkingInvariant(t, "bytes without fast path", want, byteChunks(tt.input), WithFastPath(false))
		})
	}
}

func TestChunkingInvariant_EverySplitPoint(t *testing.T) {
	for _, tt := range invarianceInputs {
		t.Run(tt.name, func(t *testing.T) {
			want := parseFull(t, tt.input)
			for i := 0; i <= len(tt.input); i++ {
				chunks := []string{tt.input[:i], tt.input[i:]}
				assertChunkingInvariant(t, "split", want, chunks)
			}
		})
	}
}

func TestChunkingInvariant_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, tt := range invarianceInputs {
		t.Run(tt.name, func(t *testing.T) {
			want := parseFull(t, tt.input)
			for trial := 0; trial < 50; trial++ {
				chunks := randomChunks(rng, tt.input, 7)
				assertChunkingInvariant(t, "random", want, chunks)
			}
		})
	}
}

func TestFastPathMatchesLinePath(t *testing.T) {
	for _, tt := range invarianceInputs {
		t.Run(tt.name, func(t *testing.T) {
			fast := parseFull(t, tt.input)
			slow := parseFull(t, tt.input, WithFastPath(false))
			if diff := cmp.Diff(slow, fast); diff != "" {
				t.Errorf("fast path differs from line path (-line +fast):\n%s", diff)
			}
		})
	}
}

func TestElementsAreNeverEmpty(t *testing.T) {
	for _, tt := range invarianceInputs {
		p := NewParser()
		var all []Element
		for _, c := range byteChunks(tt.input) {
			all = append(all, p.ProcessChunk(c, false)...)
		}
		all = append(all, p.Flush()...)
		for _, e := range all {
			if e.Text() == "" {
				t.Errorf("%s: emitted empty %s element", tt.name, e.Kind)
			}
		}
	}
}
