package mdstream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChunkBufferFeed(t *testing.T) {
	var b ChunkBuffer

	if lines := b.Feed("ab", false); len(lines) != 0 {
		t.Fatalf("Feed(ab) = %q, want no lines", lines)
	}
	if got := b.Pending(); got != "ab" {
		t.Fatalf("Pending() = %q, want %q", got, "ab")
	}

	lines := b.Feed("c\nde\nf", false)
	if diff := cmp.Diff([]string{"abc\n", "de\n"}, lines); diff != "" {
		t.Fatalf("Feed lines mismatch (-want +got):\n%s", diff)
	}
	if got := b.Pending(); got != "f" {
		t.Fatalf("Pending() = %q, want %q", got, "f")
	}

	lines = b.Feed("", true)
	if diff := cmp.Diff([]string{"f"}, lines); diff != "" {
		t.Fatalf("final Feed mismatch (-want +got):\n%s", diff)
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d after final feed, want 0", b.Len())
	}
}

func TestChunkBufferFinalWithTrailingNewline(t *testing.T) {
	var b ChunkBuffer
	lines := b.Feed("x\n", true)
	if diff := cmp.Diff([]string{"x\n"}, lines); diff != "" {
		t.Fatalf("Feed mismatch (-want +got):\n%s", diff)
	}
}

func TestChunkBufferEmptyFragments(t *testing.T) {
	var b ChunkBuffer
	for i := 0; i < 3; i++ {
		if lines := b.Feed("", false); lines != nil {
			t.Fatalf("Feed(\"\") = %q, want nil", lines)
		}
	}
	if lines := b.Feed("", true); lines != nil {
		t.Fatalf("final Feed on empty buffer = %q, want nil", lines)
	}
}

func TestIncompleteSuffix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 0},
		{"complete two byte", "héllo", 0},
		{"split two byte", "h\xc3", 1},
		{"split three byte", "a" + "€"[:2], 2},
		{"split four byte", "😀"[:3], 3},
		{"complete four byte", "😀", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := incompleteSuffix([]byte(tt.input)); got != tt.want {
				t.Errorf("incompleteSuffix(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestChunkBufferTakeCompleteHoldsPartialRune(t *testing.T) {
	var b ChunkBuffer
	if got := b.takeComplete("h\xc3"); got != "h" {
		t.Fatalf("takeComplete = %q, want %q", got, "h")
	}
	if got := b.Pending(); got != "\xc3" {
		t.Fatalf("Pending() = %q, want the partial rune", got)
	}
	if got := b.takeComplete("\xa9!"); got != "é!" {
		t.Fatalf("takeComplete = %q, want %q", got, "é!")
	}
}
