// Package chunker splits a document into fragment sequences that mimic the
// way a network stream delivers text. Every splitter is deterministic for a
// given input (Random is deterministic for a given seed).
package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"
)

// Splitter cuts s into fragments whose concatenation is s.
type Splitter func(s string) []string

// Fixed returns fragments of n bytes. The last fragment may be shorter.
func Fixed(n int) Splitter {
	if n < 1 {
		n = 1
	}
	return func(s string) []string {
		out := make([]string, 0, len(s)/n+1)
		for len(s) > n {
			out = append(out, s[:n])
			s = s[n:]
		}
		if s != "" {
			out = append(out, s)
		}
		return out
	}
}

// Random returns fragments of 1..max bytes drawn from a seeded source.
// Fragments may split multi-byte runes.
func Random(seed int64, max int) Splitter {
	if max < 1 {
		max = 1
	}
	return func(s string) []string {
		rng := rand.New(rand.NewSource(seed))
		var out []string
		for s != "" {
			n := rng.Intn(max) + 1
			if n > len(s) {
				n = len(s)
			}
			out = append(out, s[:n])
			s = s[n:]
		}
		return out
	}
}

// Runes returns one fragment per rune.
func Runes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for s != "" {
		_, size := utf8.DecodeRuneInString(s)
		out = append(out, s[:size])
		s = s[size:]
	}
	return out
}

// Bytes returns one fragment per byte, splitting multi-byte runes.
func Bytes(s string) []string {
	out := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = s[i : i+1]
	}
	return out
}

// Lines returns one fragment per line, each keeping its trailing newline.
func Lines(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}

// None returns the whole input as a single fragment.
func None(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// Names lists the strategies understood by New.
func Names() []string {
	return []string{"fixed", "random", "runes", "bytes", "lines", "none"}
}

// New resolves a strategy name. size is the fragment size for "fixed" and the
// upper bound for "random"; seed only applies to "random".
func New(name string, size int, seed int64) (Splitter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fixed":
		return Fixed(size), nil
	case "random", "":
		if size < 1 {
			size = 16
		}
		return Random(seed, size), nil
	case "runes":
		return Runes, nil
	case "bytes":
		return Bytes, nil
	case "lines":
		return Lines, nil
	case "none":
		return None, nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
}
