package mdstream

// State is the parser's position in the fence grammar. Exactly one of the
// concrete types below is live at a time.
type State interface {
	isState()
	String() string
}

// TextState scans prose for markup triggers.
type TextState struct{}

// FenceStartState saw a run of three or more backticks and is waiting for
// the language tag and a newline to confirm the fence.
type FenceStartState struct {
	Marker string
}

// CodeBlockState is inside a fenced block. OpeningMarker fixes the minimum
// closer length for the lifetime of the block.
type CodeBlockState struct {
	Language      string
	OpeningMarker string
}

// FenceEndState holds a backtick run at the end of available input inside a
// code block that may or may not turn out to be the closer.
type FenceEndState struct {
	Marker string
	Block  CodeBlockState
}

func (TextState) isState()       {}
func (FenceStartState) isState() {}
func (CodeBlockState) isState()  {}
func (FenceEndState) isState()   {}

func (TextState) String() string       { return "text" }
func (FenceStartState) String() string { return "potential_fence_start" }
func (CodeBlockState) String() string  { return "in_code_block" }
func (FenceEndState) String() string   { return "potential_fence_end" }
