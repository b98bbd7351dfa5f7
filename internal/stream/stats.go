package stream

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats tracks what one pipeline run consumed and produced.
type Stats struct {
	StartTime    time.Time
	Duration     time.Duration
	Fragments    int
	Bytes        int
	Elements     int
	Blocks       int
	Retries      int
	InputTokens  int
	OutputTokens int
}

// AddUsage adds token usage to the stats.
func (s *Stats) AddUsage(input, output int) {
	s.InputTokens += input
	s.OutputTokens += output
}

// Render returns the stats as a compact single-line string.
func (s Stats) Render() string {
	line := fmt.Sprintf("Stats: %.1fs | %d fragments (%s) | %d elements | %d blocks",
		s.Duration.Seconds(), s.Fragments, humanize.Bytes(uint64(s.Bytes)), s.Elements, s.Blocks)
	if s.InputTokens > 0 || s.OutputTokens > 0 {
		line += fmt.Sprintf(" | %s in / %s out", formatTokenCount(s.InputTokens), formatTokenCount(s.OutputTokens))
	}
	if s.Retries > 0 {
		line += fmt.Sprintf(" | %d retries", s.Retries)
	}
	return line
}

func formatTokenCount(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
