package mdstream

import (
	"strings"
	"sync"
	"unicode"
)

// Parser is the incremental classifier. It is safe for use by one producer
// at a time; calls are serialized by an internal mutex and never interleave.
type Parser struct {
	mu sync.Mutex

	lines ChunkBuffer
	st    State

	// code holds block content not yet emitted; lang holds a fence info
	// string still waiting for its newline.
	code strings.Builder
	lang strings.Builder

	// Prose whitespace is held back until visible text follows, so that the
	// newline before an opening fence can be dropped.
	pendingWS  string
	bol        bool
	afterClose bool

	// held is a prose backtick run, or an unclosed inline code span, at the
	// end of a ProcessLine call with no newline yet.
	held string

	fenceBOL    bool
	codeBOL     bool
	codeStarted bool
	block       int

	out []Element

	flushThreshold int
	fastPath       bool
	validate       func(string) string
}

// NewParser creates a parser in the Text state.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		flushThreshold: defaultCodeFlushThreshold,
		fastPath:       true,
		validate:       ValidateLanguage,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.reset()
	return p
}

// ProcessChunk consumes one fragment of the stream and returns the elements
// it completed, in order. The list may be empty. When isFinal is set the
// stream is flushed and the parser is reset for reuse.
func (p *Parser) ProcessChunk(fragment string, isFinal bool) []Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.canFastPath(fragment) {
		p.emitProse(p.lines.takeComplete(fragment), false)
	} else {
		lines := p.lines.Feed(fragment, isFinal)
		for i, line := range lines {
			p.process(line, isFinal && i == len(lines)-1)
		}
	}
	if isFinal {
		p.flushLocked()
	}
	return p.drain()
}

// ProcessLine feeds text directly to the fence state machine, bypassing line
// reassembly. The text may be a complete line or any part of one; a trailing
// backtick run, or an inline code span still open at the end of the text, is
// held until the next call or Flush decides it.
// Do not mix ProcessLine with ProcessChunk within one stream.
func (p *Parser) ProcessLine(line string) []Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.process(line, false)
	return p.drain()
}

// Flush ends the stream. A retained partial line is classified as if it
// were complete and an unterminated code block is emitted as is. The parser
// is then reset to its initial state.
func (p *Parser) Flush() []Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.flushLocked()
	return p.drain()
}

// State returns the current parser state.
func (p *Parser) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st
}

func (p *Parser) canFastPath(fragment string) bool {
	if !p.fastPath {
		return false
	}
	if _, ok := p.st.(TextState); !ok || p.held != "" {
		return false
	}
	return !strings.ContainsAny(fragment, triggerChars) &&
		!strings.ContainsAny(p.lines.Pending(), triggerChars)
}

func (p *Parser) flushLocked() {
	lines := p.lines.Feed("", true)
	for i, line := range lines {
		p.process(line, i == len(lines)-1)
	}
	p.finish()
	p.reset()
}

func (p *Parser) reset() {
	p.lines.Reset()
	p.st = TextState{}
	p.code.Reset()
	p.lang.Reset()
	p.pendingWS = ""
	p.bol = true
	p.afterClose = false
	p.held = ""
	p.fenceBOL = false
	p.codeBOL = false
	p.codeStarted = false
	p.block = 0
}

func (p *Parser) drain() []Element {
	if len(p.out) == 0 {
		return nil
	}
	out := Coalesce(p.out)
	p.out = nil
	return out
}

// process runs the state machine over s, re-entering the switch after every
// transition. final reports that no input follows s.
func (p *Parser) process(s string, final bool) {
	if p.held != "" {
		s = p.held + s
		p.held = ""
	}
	for s != "" {
		switch st := p.st.(type) {
		case TextState:
			s = p.scanText(s, final)
		case FenceStartState:
			s = p.scanFenceStart(st, s, final)
		case CodeBlockState:
			s = p.scanCode(st, s, final)
		case FenceEndState:
			p.st = st.Block
			s = st.Marker + s
		}
	}
}

// finish resolves whatever state end of input leaves open.
func (p *Parser) finish() {
	if p.held != "" {
		p.process("", true)
	}
	if st, ok := p.st.(FenceEndState); ok {
		p.st = st.Block
		p.process(st.Marker, true)
	}
	if st, ok := p.st.(FenceStartState); ok {
		p.resolveFence(st)
	}
	if st, ok := p.st.(CodeBlockState); ok {
		if buf := p.code.String(); strings.TrimSpace(buf) != "" {
			p.emitCode(st, buf)
		}
		p.code.Reset()
	}
	if p.pendingWS != "" && !p.afterClose {
		p.out = append(p.out, TextElement(Run{{Text: p.pendingWS}}))
	}
	p.pendingWS = ""
}

func (p *Parser) scanText(s string, final bool) string {
	i := strings.IndexAny(s, triggerChars)
	if i < 0 {
		p.emitProse(s, false)
		return ""
	}
	p.emitProse(s[:i], false)
	s = s[i:]

	if s[0] != '`' {
		// Emphasis is resolved per line; the rest of the line is not
		// scanned for fences.
		line, rest := cutLine(s)
		p.emitProse(line, true)
		return rest
	}

	n := backtickRun(s)
	if n >= 3 {
		p.fenceBOL = p.atLineStart()
		p.lang.Reset()
		p.st = FenceStartState{Marker: s[:n]}
		return s[n:]
	}
	if m := leadingCodePattern.FindStringSubmatchIndex(s); m != nil {
		p.emitInlineCode(s[m[2]:m[3]])
		return s[m[1]:]
	}
	if !final && !strings.Contains(s, "\n") {
		// The run may still grow into a fence, or the span may close in a
		// later call.
		p.held = s
		return ""
	}
	// No closer on this line: the backticks are literal.
	p.emitProse(s[:n], false)
	return s[n:]
}

func (p *Parser) scanFenceStart(st FenceStartState, s string, final bool) string {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		p.lang.WriteString(s)
		if final {
			p.resolveFence(st)
		}
		return ""
	}
	p.lang.WriteString(s[:i])
	if !p.resolveFence(st) {
		// The newline belongs to the prose the marker turned out to be.
		return s[i:]
	}
	return s[i+1:]
}

// resolveFence decides whether the marker and the buffered info string open
// a code block. On rejection they are emitted as styled prose.
func (p *Parser) resolveFence(st FenceStartState) bool {
	info := p.lang.String()
	p.lang.Reset()

	if !p.isFence(info) {
		p.st = TextState{}
		p.emitProse(st.Marker+info, true)
		return false
	}

	p.pendingWS = ""
	p.afterClose = false
	p.block++
	p.code.Reset()
	p.codeBOL = true
	p.codeStarted = false
	p.st = CodeBlockState{
		Language:      p.validate(info),
		OpeningMarker: st.Marker,
	}
	return true
}

// isFence applies the edge policy: an info string never contains a
// backtick, and a marker that does not start its line must be followed by
// whitespace and at most one word.
func (p *Parser) isFence(info string) bool {
	if strings.ContainsRune(info, '`') {
		return false
	}
	if p.fenceBOL {
		return true
	}
	if strings.TrimSpace(info) == "" {
		return true
	}
	if info[0] != ' ' && info[0] != '\t' {
		return false
	}
	return len(strings.Fields(info)) == 1
}

func (p *Parser) scanCode(st CodeBlockState, s string, final bool) string {
	line, rest := cutLine(s)
	complete := strings.HasSuffix(line, "\n")

	if p.codeBOL {
		// A backtick run (or indentation) with nothing after it yet may
		// still become a closer.
		if !complete && !final && onlyBackticks(strings.TrimLeft(line, " \t")) {
			p.st = FenceEndState{Marker: line, Block: st}
			return rest
		}
		if m := closerPattern(len(st.OpeningMarker)).FindStringIndex(line); m != nil {
			if buf := p.code.String(); strings.TrimSpace(buf) != "" {
				p.emitCode(st, buf)
			}
			p.code.Reset()
			p.st = TextState{}
			p.afterClose = true
			p.bol = false
			return s[closerEnd(line):]
		}
	}

	p.appendCode(st, line)
	p.codeBOL = complete
	return rest
}

// appendCode buffers code text and emits it once it holds a newline or
// exceeds the flush threshold. Blank lines before the first content line of
// a block are dropped.
func (p *Parser) appendCode(st CodeBlockState, text string) {
	p.code.WriteString(text)
	buf := p.code.String()

	if !p.codeStarted {
		if strings.TrimSpace(buf) == "" {
			if strings.Contains(buf, "\n") {
				p.code.Reset()
			}
			return
		}
		buf = trimLeadingBlankLines(buf)
		p.codeStarted = true
		p.code.Reset()
		p.code.WriteString(buf)
	}

	if strings.Contains(buf, "\n") || len(buf) > p.flushThreshold {
		p.emitCode(st, buf)
		p.code.Reset()
	}
}

func (p *Parser) emitCode(st CodeBlockState, content string) {
	p.out = append(p.out, CodeBlockElement(st.Language, content, p.block))
}

// emitProse emits s as a text element. Trailing whitespace is held back and
// prepended to the next prose.
func (p *Parser) emitProse(s string, styled bool) {
	raw := p.pendingWS + s
	body := strings.TrimRightFunc(raw, unicode.IsSpace)
	p.pendingWS = raw[len(body):]
	if body == "" {
		return
	}
	if p.afterClose {
		body = collapseBlankLines(body)
		p.afterClose = false
	}

	run := Run{{Text: body, Style: StylePlain}}
	if styled {
		run = StyleInline(body)
	}
	p.out = append(p.out, TextElement(run))
	p.bol = false
}

// emitInlineCode emits a code span verbatim, preceded by any held prose
// whitespace.
func (p *Parser) emitInlineCode(content string) {
	ws := p.pendingWS
	p.pendingWS = ""
	if p.afterClose {
		ws = collapseBlankLines(ws)
		p.afterClose = false
	}
	var run Run
	if ws != "" {
		run = append(run, Segment{Text: ws, Style: StylePlain})
	}
	run = append(run, Segment{Text: content, Style: StyleInlineCode})
	p.out = append(p.out, TextElement(run))
	p.bol = false
}

func (p *Parser) atLineStart() bool {
	return p.bol || strings.Contains(p.pendingWS, "\n")
}

// cutLine splits s after its first newline.
func cutLine(s string) (line, rest string) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i+1], s[i+1:]
	}
	return s, ""
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

func onlyBackticks(s string) bool {
	return backtickRun(s) == len(s)
}

// closerEnd returns the offset just past the backtick run of a closing
// fence line.
func closerEnd(line string) int {
	i := len(line) - len(strings.TrimLeft(line, " \t"))
	return i + backtickRun(line[i:])
}

func trimLeadingBlankLines(s string) string {
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 || strings.TrimSpace(s[:i]) != "" {
			return s
		}
		s = s[i+1:]
	}
}

// collapseBlankLines reduces the leading whitespace of s to a single line
// break plus the indentation of the first non-blank line.
func collapseBlankLines(s string) string {
	body := strings.TrimLeftFunc(s, unicode.IsSpace)
	lead := s[:len(s)-len(body)]
	i := strings.LastIndexByte(lead, '\n')
	if i < 0 {
		return s
	}
	return "\n" + lead[i+1:] + body
}
