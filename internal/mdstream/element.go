// Package mdstream incrementally classifies a markdown stream into prose runs
// and fenced code blocks. It is designed for text arriving in arbitrary
// fragments from an LLM: a fence, language tag, or bold marker may be split
// across any number of fragments and the parser never emits an element that a
// later fragment would invalidate.
package mdstream

import (
	"fmt"
	"strings"
)

// ElementKind distinguishes the variants of Element.
type ElementKind int

const (
	KindText ElementKind = iota
	KindCodeBlock
)

func (k ElementKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCodeBlock:
		return "code_block"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k ElementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Style is the presentation tag of a Segment.
type Style int

const (
	StylePlain Style = iota
	StyleBold
	StyleInlineCode
)

func (s Style) String() string {
	switch s {
	case StylePlain:
		return "plain"
	case StyleBold:
		return "bold"
	case StyleInlineCode:
		return "code"
	}
	return fmt.Sprintf("style(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Segment is a piece of text with a single style.
type Segment struct {
	Text  string `json:"text" yaml:"text"`
	Style Style  `json:"style" yaml:"style"`
}

// Run is a styled sequence of segments.
type Run []Segment

// String returns the visible text of the run without styling.
func (r Run) String() string {
	var sb strings.Builder
	for _, seg := range r {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// merge appends other to r, joining adjacent segments that share a style.
func (r Run) merge(other Run) Run {
	for _, seg := range other {
		if seg.Text == "" {
			continue
		}
		if n := len(r); n > 0 && r[n-1].Style == seg.Style {
			r[n-1].Text += seg.Text
			continue
		}
		r = append(r, seg)
	}
	return r
}

// Element is one classified unit of output. Elements are never modified
// after they are returned by the parser.
//
// For KindText only Run is set. For KindCodeBlock, Language, Content and
// Block are set; a fenced block may be delivered as several pieces sharing
// the same Block number, which callers concatenate.
type Element struct {
	Kind     ElementKind `json:"kind" yaml:"kind"`
	Run      Run         `json:"run,omitempty" yaml:"run,omitempty"`
	Language string      `json:"language,omitempty" yaml:"language,omitempty"`
	Content  string      `json:"content,omitempty" yaml:"content,omitempty"`
	Block    int         `json:"block,omitempty" yaml:"block,omitempty"`
}

// TextElement builds a text element from a run.
func TextElement(run Run) Element {
	return Element{Kind: KindText, Run: Run(nil).merge(run)}
}

// CodeBlockElement builds a code block piece.
func CodeBlockElement(language, content string, block int) Element {
	return Element{Kind: KindCodeBlock, Language: language, Content: content, Block: block}
}

// Text returns the visible text of the element.
func (e Element) Text() string {
	if e.Kind == KindCodeBlock {
		return e.Content
	}
	return e.Run.String()
}

// Coalesce merges adjacent text elements and adjacent pieces of the same code
// block. The input slice is not modified.
func Coalesce(elems []Element) []Element {
	out := make([]Element, 0, len(elems))
	for _, e := range elems {
		n := len(out)
		if n > 0 {
			last := &out[n-1]
			switch {
			case e.Kind == KindText && last.Kind == KindText:
				last.Run = last.Run.merge(e.Run)
				continue
			case e.Kind == KindCodeBlock && last.Kind == KindCodeBlock && e.Block == last.Block:
				last.Content += e.Content
				continue
			}
		}
		if e.Kind == KindText {
			e.Run = Run(nil).merge(e.Run)
		}
		out = append(out, e)
	}
	return out
}
