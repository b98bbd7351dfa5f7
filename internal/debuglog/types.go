package debuglog

import (
	"time"
)

// Entry types written to a trace file.
const (
	TypeSessionStart = "session_start"
	TypeFragment     = "fragment"
	TypeElement      = "element"
	TypeFlush        = "flush"
	TypeUsage        = "usage"
	TypeError        = "error"
)

// FragmentEntry is one raw fragment handed to the parser.
type FragmentEntry struct {
	Timestamp time.Time
	Seq       int
	Text      string
	IsFinal   bool
}

// ElementEntry is one element returned by the parser.
type ElementEntry struct {
	Timestamp time.Time
	Kind      string
	Language  string
	Block     int
	Text      string
}

// EventEntry covers flush, usage and error lines.
type EventEntry struct {
	Timestamp time.Time
	Type      string
	Message   string
	Input     int
	Output    int
}

// Session represents a trace session with metadata
type Session struct {
	ID        string
	FilePath  string
	StartTime time.Time
	EndTime   time.Time
	Provider  string
	Model     string
	Command   string   // CLI command that started the session
	Args      []string // CLI arguments
	Cwd       string   // Working directory
	Fragments int
	Elements  int
	Blocks    int
	Bytes     int
	Input     int
	Output    int
	HasErrors bool
	Entries   []any // FragmentEntry, ElementEntry or EventEntry
}

// SessionSummary is a lightweight session info for listing
type SessionSummary struct {
	ID        string
	FilePath  string
	StartTime time.Time
	Command   string
	Provider  string
	Model     string
	Fragments int
	Elements  int
	Blocks    int
	HasErrors bool
	FileSize  int64
}
