package mdstream

// StyleInline applies bold and inline-code styling to a fully materialized
// span of prose. Bold runs first so a code span cannot straddle a delimiter
// that has already been removed. Delimiters are stripped from the output.
func StyleInline(text string) Run {
	if text == "" {
		return nil
	}
	var run Run
	for _, seg := range styleBold(text) {
		run = run.merge(styleCode(seg))
	}
	return run
}

func styleBold(text string) Run {
	matches := boldPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return Run{{Text: text, Style: StylePlain}}
	}
	var run Run
	pos := 0
	for _, m := range matches {
		run = append(run, Segment{Text: text[pos:m[0]], Style: StylePlain})
		// Group 1 is the ** form, group 2 the __ form.
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		run = append(run, Segment{Text: text[start:end], Style: StyleBold})
		pos = m[1]
	}
	run = append(run, Segment{Text: text[pos:], Style: StylePlain})
	return run
}

// styleCode splits seg around inline code spans. Text outside the spans
// keeps the style of seg.
func styleCode(seg Segment) Run {
	matches := inlineCodePattern.FindAllStringSubmatchIndex(seg.Text, -1)
	if len(matches) == 0 {
		return Run{seg}
	}
	var run Run
	pos := 0
	for _, m := range matches {
		run = append(run,
			Segment{Text: seg.Text[pos:m[0]], Style: seg.Style},
			Segment{Text: seg.Text[m[2]:m[3]], Style: StyleInlineCode},
		)
		pos = m[1]
	}
	run = append(run, Segment{Text: seg.Text[pos:], Style: seg.Style})
	return run
}
