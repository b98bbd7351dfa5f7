package debuglog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// rawEntry is the raw JSON structure for parsing
type rawEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	// session_start fields
	Command  string   `json:"command,omitempty"`
	Args     []string `json:"args,omitempty"`
	Cwd      string   `json:"cwd,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	// fragment fields
	Seq     int    `json:"seq"`
	IsFinal bool   `json:"is_final,omitempty"`
	Text    string `json:"text,omitempty"`
	// element fields
	Kind     string `json:"kind,omitempty"`
	Language string `json:"language,omitempty"`
	Block    int    `json:"block,omitempty"`
	// usage and error fields
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	Error        string `json:"error,omitempty"`
}

// scanEntries calls fn for every well-formed line of a trace file.
func scanEntries(filePath string, fn func(entry rawEntry, ts time.Time)) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Increase buffer size for large log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		var entry rawEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
		if err != nil {
			continue
		}
		fn(entry, ts)
	}
	return scanner.Err()
}

// ListSessions returns summaries of all sessions in the trace directory,
// sorted by start time (most recent first).
func ListSessions(dir string) ([]SessionSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionSummary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		summary, err := parseSessionSummary(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // Skip malformed files
		}
		sessions = append(sessions, summary)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

// parseSessionSummary extracts summary info from a session file
func parseSessionSummary(filePath string) (SessionSummary, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return SessionSummary{}, err
	}

	summary := SessionSummary{
		ID:       strings.TrimSuffix(filepath.Base(filePath), ".jsonl"),
		FilePath: filePath,
		FileSize: info.Size(),
	}
	blocks := map[int]bool{}

	err = scanEntries(filePath, func(entry rawEntry, ts time.Time) {
		if summary.StartTime.IsZero() || ts.Before(summary.StartTime) {
			summary.StartTime = ts
		}
		switch entry.Type {
		case TypeSessionStart:
			summary.Command = entry.Command
			summary.Provider = entry.Provider
			summary.Model = entry.Model
		case TypeFragment:
			summary.Fragments++
		case TypeElement:
			summary.Elements++
			if entry.Block > 0 {
				blocks[entry.Block] = true
			}
		case TypeError:
			summary.HasErrors = true
		}
	})
	summary.Blocks = len(blocks)
	return summary, err
}

// ParseSession parses a full session file into a Session struct
func ParseSession(filePath string) (*Session, error) {
	session := &Session{
		ID:       strings.TrimSuffix(filepath.Base(filePath), ".jsonl"),
		FilePath: filePath,
	}
	blocks := map[int]bool{}

	err := scanEntries(filePath, func(entry rawEntry, ts time.Time) {
		if session.StartTime.IsZero() || ts.Before(session.StartTime) {
			session.StartTime = ts
		}
		if ts.After(session.EndTime) {
			session.EndTime = ts
		}

		switch entry.Type {
		case TypeSessionStart:
			session.Command = entry.Command
			session.Args = entry.Args
			session.Cwd = entry.Cwd
			session.Provider = entry.Provider
			session.Model = entry.Model
		case TypeFragment:
			session.Fragments++
			session.Bytes += len(entry.Text)
			session.Entries = append(session.Entries, FragmentEntry{
				Timestamp: ts,
				Seq:       entry.Seq,
				Text:      entry.Text,
				IsFinal:   entry.IsFinal,
			})
		case TypeElement:
			session.Elements++
			if entry.Block > 0 {
				blocks[entry.Block] = true
			}
			session.Entries = append(session.Entries, ElementEntry{
				Timestamp: ts,
				Kind:      entry.Kind,
				Language:  entry.Language,
				Block:     entry.Block,
				Text:      entry.Text,
			})
		case TypeUsage:
			session.Input += entry.InputTokens
			session.Output += entry.OutputTokens
			session.Entries = append(session.Entries, EventEntry{
				Timestamp: ts,
				Type:      TypeUsage,
				Input:     entry.InputTokens,
				Output:    entry.OutputTokens,
			})
		case TypeError:
			session.HasErrors = true
			session.Entries = append(session.Entries, EventEntry{Timestamp: ts, Type: TypeError, Message: entry.Error})
		case TypeFlush:
			session.Entries = append(session.Entries, EventEntry{Timestamp: ts, Type: TypeFlush})
		}
	})
	if err != nil {
		return nil, err
	}
	session.Blocks = len(blocks)
	return session, nil
}

// FragmentTexts returns the raw fragment texts of a session in order, for replay.
func (s *Session) FragmentTexts() []string {
	var out []string
	for _, e := range s.Entries {
		if f, ok := e.(FragmentEntry); ok {
			out = append(out, f.Text)
		}
	}
	return out
}

// GetSessionByNumber returns the session at the given 1-based index
// (1 = most recent)
func GetSessionByNumber(dir string, num int) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}
	if num < 1 || num > len(sessions) {
		return nil, nil
	}
	return &sessions[num-1], nil
}

// GetSessionByID returns the session with the given ID or unique ID prefix
func GetSessionByID(dir, id string) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}

	var match *SessionSummary
	for i, s := range sessions {
		if s.ID == id {
			return &sessions[i], nil
		}
		if strings.HasPrefix(s.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous session id %q", id)
			}
			match = &sessions[i]
		}
	}
	return match, nil
}

// ResolveSession resolves a session identifier (number or ID) to a session
// summary. It returns nil when nothing matches.
func ResolveSession(dir, identifier string) (*SessionSummary, error) {
	if num, err := strconv.Atoi(identifier); err == nil && num > 0 && len(identifier) < 8 {
		return GetSessionByNumber(dir, num)
	}
	if identifier == "" {
		return nil, nil
	}
	return GetSessionByID(dir, identifier)
}
