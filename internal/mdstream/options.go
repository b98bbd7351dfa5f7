package mdstream

// Option configures a Parser.
type Option func(*Parser)

// WithCodeFlushThreshold sets the buffered code size above which a partial
// code line is emitted early. Values below 1 keep the default.
func WithCodeFlushThreshold(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.flushThreshold = n
		}
	}
}

// WithFastPath enables or disables the trigger-free fast path in
// ProcessChunk. Output is identical either way; disabling it is useful for
// tests that compare the two paths.
func WithFastPath(enabled bool) Option {
	return func(p *Parser) {
		p.fastPath = enabled
	}
}

// WithLanguageValidator replaces ValidateLanguage for fence info strings.
func WithLanguageValidator(fn func(string) string) Option {
	return func(p *Parser) {
		if fn != nil {
			p.validate = fn
		}
	}
}
