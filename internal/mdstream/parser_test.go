package mdstream

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScenarioSplitInlineCodeAndFence(t *testing.T) {
	p := NewParser()

	chunks := []string{"He said ``", "`x=1` then:\n```py", "thon\ndef f(): pass\n```", "\ndone"}
	var calls [][]Element
	for _, c := range chunks {
		calls = append(calls, p.ProcessChunk(c, false))
	}
	calls = append(calls, p.Flush())

	wantCalls := [][]Element{
		nil,
		{text(plain("He said "), code("x=1"), plain(" then:"))},
		{block("python", "def f(): pass\n", 1)},
		nil,
		{text(plain("\ndone"))},
	}
	if diff := cmp.Diff(wantCalls, calls); diff != "" {
		t.Fatalf("per-call elements mismatch (-want +got):\n%s", diff)
	}
}

func TestFenceMinimumLength(t *testing.T) {
	input := "````\n```\ninner\n```\n````\n"

	p := NewParser()
	p.ProcessChunk("````\n```\n", false)
	if _, ok := p.State().(CodeBlockState); !ok {
		t.Fatalf("State() = %v after shorter run, want in_code_block", p.State())
	}

	got := parseFull(t, input)
	want := []Element{block("", "```\ninner\n```\n", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestLongerCloserAccepted(t *testing.T) {
	got := parseFull(t, "```\nx\n`````\nafter")
	want := []Element{block("", "x\n", 1), text(plain("\nafter"))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineCodeDoesNotOpenBlock(t *testing.T) {
	p := NewParser()
	got := p.ProcessChunk("use `x` here\n", false)
	if _, ok := p.State().(TextState); !ok {
		t.Fatalf("State() = %v, want text", p.State())
	}
	want := []Element{text(plain("use "), code("x"), plain(" here"))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineCodeKeepsEmphasisMarkers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Element
	}{
		{
			name:  "dunder",
			input: "call `__init__` now\n",
			want:  []Element{text(plain("call "), code("__init__"), plain(" now\n"))},
		},
		{
			name:  "double asterisks",
			input: "`**x**`\n",
			want:  []Element{text(code("**x**"), plain("\n"))},
		},
		{
			name:  "bold outside span",
			input: "`a_b` and __c__\n",
			want:  []Element{text(code("a_b"), plain(" and "), bold("c"), plain("\n"))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFull(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("elements mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmptyBlockSuppressed(t *testing.T) {
	inputs := []string{
		"```\n```\n",
		"```py\n   \n\n```\n",
		"```go\n \t ",
	}
	for _, input := range inputs {
		for _, e := range parseFull(t, input) {
			if e.Kind == KindCodeBlock {
				t.Errorf("input %q produced code block %q", input, e.Content)
			}
		}
	}
}

func TestLeadingBlankLinesSkipped(t *testing.T) {
	got := parseFull(t, "```py\n\n  \nprint(1)\n\nprint(2)\n```\n")
	want := []Element{block("python", "print(1)\n\nprint(2)\n", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestBlankLinesCollapsedAfterCloser(t *testing.T) {
	got := parseFull(t, "```\nx\n```\n\n\n\nnext\n")
	want := []Element{block("", "x\n", 1), text(plain("\nnext\n"))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestNewlineBeforeFenceDropped(t *testing.T) {
	got := parseFull(t, "Intro:\n\n  ```go\nx := 1\n```")
	want := []Element{text(plain("Intro:")), block("go", "x := 1\n", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestFenceLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"```JS\nx\n```\n", "javascript"},
		{"```xyzzy\nx\n```\n", ""},
		{"```python title=\"a.py\"\nx\n```\n", "python"},
		{"```\nx\n```\n", ""},
	}
	for _, tt := range tests {
		got := parseFull(t, tt.input)
		if len(got) == 0 || got[0].Kind != KindCodeBlock {
			t.Fatalf("input %q: want a code block, got %+v", tt.input, got)
		}
		if got[0].Language != tt.want {
			t.Errorf("input %q: language = %q, want %q", tt.input, got[0].Language, tt.want)
		}
	}
}

func TestMidLineFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Element
	}{
		{
			name:  "bare marker opens block",
			input: "Code: ```\nx\n```\n",
			want:  []Element{text(plain("Code:")), block("", "x\n", 1)},
		},
		{
			name:  "marker glued to word is inline",
			input: "see ```x``` ok\n",
			want:  []Element{text(plain("see "), code("x"), plain(" ok\n"))},
		},
		{
			name:  "marker followed by prose is literal",
			input: "use ``` to fence\n",
			want:  []Element{text(plain("use ``` to fence\n"))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFull(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("elements mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoldResolvedPerLine(t *testing.T) {
	got := parseFull(t, "a **b\nc** d\n**e**\n")
	want := []Element{text(plain("a **b\nc** d\n"), bold("e"), plain("\n"))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushUnterminatedBlock(t *testing.T) {
	p := NewParser()
	if got := p.ProcessChunk("```go\nx := 1", false); got != nil {
		t.Fatalf("ProcessChunk = %+v, want nothing before flush", got)
	}
	got := p.Flush()
	want := []Element{block("go", "x := 1", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flush mismatch (-want +got):\n%s", diff)
	}
	if _, ok := p.State().(TextState); !ok {
		t.Errorf("State() after Flush = %v, want text", p.State())
	}
}

func TestFlushPartialTextLine(t *testing.T) {
	got := parseFull(t, "Some **bold")
	want := []Element{text(plain("Some **bold"))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushPendingFence(t *testing.T) {
	p := NewParser()
	p.ProcessChunk("```py", false)
	if _, ok := p.State().(TextState); !ok {
		t.Fatalf("marker is still pending in the line buffer, state = %v", p.State())
	}
	if got := p.Flush(); got != nil {
		t.Errorf("Flush = %+v, want nothing for an empty fence", got)
	}
}

func TestProcessChunkFinalMatchesFlush(t *testing.T) {
	input := "a **b**\n```go\nx\n"

	p := NewParser()
	got := Coalesce(p.ProcessChunk(input, true))
	want := parseFull(t, input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("final chunk mismatch (-want +got):\n%s", diff)
	}
	if extra := p.Flush(); extra != nil {
		t.Errorf("second Flush = %+v, want nothing", extra)
	}
}

func TestParserReuseAfterFlush(t *testing.T) {
	p := NewParser()
	p.ProcessChunk("```\na\n```\n```\nb\n", false)
	p.Flush()

	got := Coalesce(append(p.ProcessChunk("```\nc\n```\n", false), p.Flush()...))
	want := []Element{block("", "c\n", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reuse mismatch (-want +got):\n%s", diff)
	}
}

func TestBlockNumbers(t *testing.T) {
	got := parseFull(t, "```go\na\n```\ntext\n```sh\nb\n```\n")
	want := []Element{
		block("go", "a\n", 1),
		text(plain("\ntext")),
		block("bash", "b\n", 2),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessLineHoldsPotentialCloser(t *testing.T) {
	p := NewParser()
	p.ProcessLine("```go\n")
	if got := p.ProcessLine("x := 1\n"); !cmp.Equal(got, []Element{block("go", "x := 1\n", 1)}) {
		t.Fatalf("ProcessLine = %+v", got)
	}

	p.ProcessLine("``")
	st, ok := p.State().(FenceEndState)
	if !ok || st.Marker != "``" {
		t.Fatalf("State() = %#v, want potential fence end with marker ``", p.State())
	}
	p.ProcessLine("`")
	if st, ok := p.State().(FenceEndState); !ok || st.Marker != "```" {
		t.Fatalf("State() = %#v, want accumulated marker ```", p.State())
	}

	if got := p.ProcessLine("\n"); got != nil {
		t.Fatalf("closing ProcessLine = %+v, want nothing", got)
	}
	if _, ok := p.State().(TextState); !ok {
		t.Fatalf("State() = %v after closer, want text", p.State())
	}

	got := p.ProcessLine("done")
	if diff := cmp.Diff([]Element{text(plain("\ndone"))}, got); diff != "" {
		t.Errorf("text after closer mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessLineRejectedCloserStaysInBlock(t *testing.T) {
	p := NewParser()
	p.ProcessLine("```go\n")
	p.ProcessLine("```")
	got := p.ProcessLine("js\n")
	if diff := cmp.Diff([]Element{block("go", "```js\n", 1)}, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
	if _, ok := p.State().(CodeBlockState); !ok {
		t.Errorf("State() = %v, want in_code_block", p.State())
	}
}

func TestProcessLineHeldCloserFlushed(t *testing.T) {
	p := NewParser()
	p.ProcessLine("```\n")
	p.ProcessLine("a\n")
	p.ProcessLine("```")
	if got := p.Flush(); got != nil {
		t.Errorf("Flush = %+v, want nothing after held closer", got)
	}
}

func TestProcessLineSplitOpener(t *testing.T) {
	lines := []string{"``", "`go\n", "foo\n", "```\n"}

	p := NewParser()
	var got []Element
	for _, l := range lines {
		got = append(got, p.ProcessLine(l)...)
		if l == "``" {
			if _, ok := p.State().(TextState); !ok {
				t.Fatalf("State() = %v after partial opener, want text", p.State())
			}
		}
	}
	got = Coalesce(append(got, p.Flush()...))

	want := []Element{block("go", "foo\n", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessLineSplitInlineCode(t *testing.T) {
	p := NewParser()
	if got := p.ProcessLine("say `__in"); !cmp.Equal(got, []Element{text(plain("say"))}) {
		t.Fatalf("ProcessLine = %+v, want only the prose before the span", got)
	}
	got := append(p.ProcessLine("it__` ok\n"), p.Flush()...)

	want := []Element{text(plain(" "), code("__init__"), plain(" ok\n"))}
	if diff := cmp.Diff(want, Coalesce(got)); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessLineUnclosedSpanFlushedLiteral(t *testing.T) {
	p := NewParser()
	got := append(p.ProcessLine("a `b"), p.Flush()...)
	want := []Element{text(plain("a `b"))}
	if diff := cmp.Diff(want, Coalesce(got)); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestCodeFlushThreshold(t *testing.T) {
	p := NewParser()
	p.ProcessLine("```\n")
	if got := p.ProcessLine("short"); got != nil {
		t.Fatalf("ProcessLine(short) = %+v, want buffered", got)
	}
	got := p.ProcessLine(" and a much longer tail")
	want := []Element{block("", "short and a much longer tail", 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("early flush mismatch (-want +got):\n%s", diff)
	}

	p = NewParser(WithCodeFlushThreshold(100))
	p.ProcessLine("```\n")
	p.ProcessLine("short")
	if got := p.ProcessLine(" and a much longer tail"); got != nil {
		t.Errorf("ProcessLine with high threshold = %+v, want buffered", got)
	}
}

func TestWithLanguageValidator(t *testing.T) {
	upper := func(s string) string { return "lang:" + s }
	got := parseFull(t, "```x\ny\n```\n", WithLanguageValidator(upper))
	if len(got) != 1 || got[0].Language != "lang:x" {
		t.Errorf("elements = %+v, want language from custom validator", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		st   State
		want string
	}{
		{TextState{}, "text"},
		{FenceStartState{Marker: "```"}, "potential_fence_start"},
		{CodeBlockState{}, "in_code_block"},
		{FenceEndState{}, "potential_fence_end"},
	}
	for _, tt := range tests {
		if got := tt.st.String(); got != tt.want {
			t.Errorf("%T.String() = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestPatternsCompile(t *testing.T) {
	for n := 1; n <= 8; n++ {
		re := closerPattern(n)
		if re != closerPattern(n) {
			t.Errorf("closerPattern(%d) not cached", n)
		}
	}
	if closerPattern(2) != closerPattern(3) {
		t.Error("closer length below 3 should share the 3 pattern")
	}

	tests := []struct {
		n     int
		line  string
		match bool
	}{
		{3, "```\n", true},
		{3, "```", true},
		{3, "  ````  \n", true},
		{3, "``\n", false},
		{3, "```js\n", false},
		{4, "```\n", false},
		{4, "````\r\n", true},
	}
	for _, tt := range tests {
		if got := closerPattern(tt.n).MatchString(tt.line); got != tt.match {
			t.Errorf("closerPattern(%d).MatchString(%q) = %v, want %v", tt.n, tt.line, got, tt.match)
		}
	}
}

func TestConcurrentStateReads(t *testing.T) {
	p := NewParser()
	input := "text **b**\n```go\nfunc main() {}\n```\n"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, c := range byteChunks(input) {
			p.ProcessChunk(c, false)
		}
	}()
	for i := 0; i < 100; i++ {
		_ = p.State()
	}
	wg.Wait()

	if got := p.Flush(); got != nil {
		t.Errorf("Flush = %+v, want nothing", got)
	}
}
