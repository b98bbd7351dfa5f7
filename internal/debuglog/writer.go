package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samsaffron/fencestream/internal/mdstream"
)

// Logger writes one JSONL trace file per session: every fragment fed to the
// parser and every element it returned.
type Logger struct {
	baseDir   string
	sessionID string
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	seq       int
	closeOnce sync.Once
	closed    bool
}

// logEntry is the common structure for all log entries
type logEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
}

type sessionStartEntry struct {
	logEntry
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Cwd      string   `json:"cwd"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
}

type fragmentEntry struct {
	logEntry
	Seq     int    `json:"seq"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final,omitempty"`
}

type elementEntry struct {
	logEntry
	Kind     string `json:"kind"`
	Language string `json:"language,omitempty"`
	Block    int    `json:"block,omitempty"`
	Text     string `json:"text"`
}

type usageEntry struct {
	logEntry
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type errorEntry struct {
	logEntry
	Error string `json:"error"`
}

// New creates a trace for sessionID under baseDir. Files older than
// retention are removed first; retention <= 0 keeps everything.
func New(baseDir, sessionID string, retention time.Duration) (*Logger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	if retention > 0 {
		_ = CleanupOldLogs(baseDir, retention)
	}

	filename := filepath.Join(baseDir, sessionID+".jsonl")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &Logger{
		baseDir:   baseDir,
		sessionID: sessionID,
		file:      file,
		writer:    bufio.NewWriter(file),
	}, nil
}

// SessionID returns the ID this logger writes under.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Path returns the trace file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return filepath.Join(l.baseDir, l.sessionID+".jsonl")
}

func (l *Logger) header(typ string) logEntry {
	return logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: l.sessionID,
		Type:      typ,
	}
}

// LogSessionStart logs the session start with CLI invocation details.
func (l *Logger) LogSessionStart(command string, args []string, cwd, provider, model string) {
	if l == nil {
		return
	}
	l.writeEntry(sessionStartEntry{
		logEntry: l.header(TypeSessionStart),
		Command:  command,
		Args:     args,
		Cwd:      cwd,
		Provider: provider,
		Model:    model,
	})
	l.Flush()
}

// LogFragment logs a fragment as it is handed to the parser.
func (l *Logger) LogFragment(text string, isFinal bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	seq := l.seq
	l.seq++
	l.mu.Unlock()
	l.writeEntry(fragmentEntry{
		logEntry: l.header(TypeFragment),
		Seq:      seq,
		Text:     text,
		IsFinal:  isFinal,
	})
}

// LogElements logs the elements returned by one parser call.
func (l *Logger) LogElements(elems []mdstream.Element) {
	if l == nil {
		return
	}
	for _, e := range elems {
		entry := elementEntry{
			logEntry: l.header(TypeElement),
			Kind:     e.Kind.String(),
			Text:     e.Text(),
		}
		if e.Kind == mdstream.KindCodeBlock {
			entry.Language = e.Language
			entry.Block = e.Block
		}
		l.writeEntry(entry)
	}
}

// LogFlush records an explicit end-of-stream flush.
func (l *Logger) LogFlush() {
	if l == nil {
		return
	}
	l.writeEntry(l.header(TypeFlush))
	l.Flush()
}

// LogUsage records provider token usage.
func (l *Logger) LogUsage(input, output int) {
	if l == nil {
		return
	}
	l.writeEntry(usageEntry{logEntry: l.header(TypeUsage), InputTokens: input, OutputTokens: output})
}

// LogError records a stream failure.
func (l *Logger) LogError(err error) {
	if l == nil || err == nil {
		return
	}
	l.writeEntry(errorEntry{logEntry: l.header(TypeError), Error: err.Error()})
	l.Flush()
}

// Close flushes and closes the trace file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	var closeErr error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if err := l.writer.Flush(); err != nil {
			closeErr = err
		}
		if err := l.file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		l.closed = true
	})
	return closeErr
}

// writeEntry writes a single log entry as a JSON line.
func (l *Logger) writeEntry(entry any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.writer.Write(data)
	l.writer.WriteString("\n")
}

// Flush flushes the buffered writer to disk.
func (l *Logger) Flush() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.writer.Flush()
	}
}

// CleanupOldLogs removes trace files whose modification time is older than maxAge.
func CleanupOldLogs(baseDir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(baseDir, entry.Name()))
		}
	}
	return nil
}
