package mdstream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStyleInline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Run
	}{
		{"empty", "", nil},
		{"plain", "just words", Run{plain("just words")}},
		{"bold stars", "**hello**", Run{bold("hello")}},
		{"bold underscores", "__hi__ there", Run{bold("hi"), plain(" there")}},
		{"whitespace only bold", "** **", Run{plain("** **")}},
		{"space inside delimiter", "** x**", Run{plain("** x**")}},
		{"multi word bold", "a **b c** d", Run{plain("a "), bold("b c"), plain(" d")}},
		{"two bold spans", "a **b** c **d**", Run{plain("a "), bold("b"), plain(" c "), bold("d")}},
		{"inline code", "`a` and `b`", Run{code("a"), plain(" and "), code("b")}},
		{"double backtick code", "run ``ls -la`` now", Run{plain("run "), code("ls -la"), plain(" now")}},
		{"unclosed code", "a `b", Run{plain("a `b")}},
		{"code inside bold", "**use `x`**", Run{bold("use "), code("x")}},
		{"bold runs first", "**a** `**b**`", Run{bold("a"), plain(" `"), bold("b"), plain("`")}},
		{"arithmetic", "2 * 3 * 4", Run{plain("2 * 3 * 4")}},
		{"single underscores", "snake_case_name", Run{plain("snake_case_name")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StyleInline(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("StyleInline(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestRunString(t *testing.T) {
	run := StyleInline("say **hi** to `you`")
	if got := run.String(); got != "say hi to you" {
		t.Errorf("String() = %q, want %q", got, "say hi to you")
	}
}
