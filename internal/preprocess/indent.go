// Package preprocess rewrites indentation-structured source into a flat
// form with explicit INDENT/DEDENT markers, the way sentra's scanner
// collapses whitespace but preserving, in addition, a reverse byte map so
// later diagnostics can point back at the original source (spec.md §4.A).
package preprocess

import (
	"strings"

	"github.com/glint-lang/glint/internal/diag"
)

// IndentMarker and DedentMarker are the synthetic tokens the lexer
// recognizes as INDENT/DEDENT. They cannot appear in Glint source, so
// inserting them verbatim into the transformed text is unambiguous.
const (
	IndentMarker = "<<INDENT>>"
	DedentMarker = "<<DEDENT>>"
)

// offsetSynthetic marks a transformed byte that has no corresponding byte
// in the original source (part of an inserted marker).
const offsetSynthetic = -1

// Result is the output of preprocessing: the original and transformed
// text, plus a per-byte reverse-offset map over the transformed text.
type Result struct {
	Original    string
	Transformed string
	// ReverseMap[i] is either the original byte offset that transformed
	// byte i came from, or offsetSynthetic.
	ReverseMap []int
}

// MapSpanBack returns the original byte range backing [start, end) of the
// transformed text, or ok=false if either endpoint lands on a synthetic
// byte (an inserted marker has no original position).
func (r *Result) MapSpanBack(start, end int) (origStart, origEnd int, ok bool) {
	if start < 0 || end > len(r.ReverseMap) || start >= end {
		return 0, 0, false
	}
	a := r.ReverseMap[start]
	b := r.ReverseMap[end-1]
	if a == offsetSynthetic || b == offsetSynthetic {
		return 0, 0, false
	}
	return a, b + 1, true
}

type indentStyle int

const (
	styleUnknown indentStyle = iota
	styleSpaces
	styleTabs
)

// Preprocess implements the algorithm of spec.md §4.A: walk line by line,
// maintaining a stack of indent widths, emitting INDENT/DEDENT markers on
// width changes and copying everything else byte for byte.
func Preprocess(source string) (*Result, diag.List) {
	var errs diag.List

	var out strings.Builder
	var rev []int

	emit := func(b byte, origIdx int) {
		out.WriteByte(b)
		rev = append(rev, origIdx)
	}
	emitSynthetic := func(s string) {
		for i := 0; i < len(s); i++ {
			out.WriteByte(s[i])
			rev = append(rev, offsetSynthetic)
		}
	}

	stack := []int{0}
	style := styleUnknown
	line := 0
	pos := 0

	lines := splitKeepingOffsets(source)
	for _, ln := range lines {
		line++
		text := ln.text // does not include the trailing newline
		hasNewline := ln.hasNewline

		trimmed := strings.TrimLeft(text, " \t")
		isBlank := trimmed == ""
		isCommentOnly := strings.HasPrefix(trimmed, "#")

		if isBlank || isCommentOnly {
			for i := 0; i < len(text); i++ {
				emit(text[i], ln.start+i)
			}
			if hasNewline {
				emit('\n', ln.start+len(text))
			}
			pos = ln.start + len(text) + boolToInt(hasNewline)
			continue
		}

		prefix := text[:len(text)-len(trimmed)]
		width, mixed := measureIndent(prefix, &style)
		if mixed {
			errs.Add(diag.MixedIndentation(line))
			// Skip the offending line entirely, per spec.md §4.A.
			pos = ln.start + len(text) + boolToInt(hasNewline)
			continue
		}

		top := stack[len(stack)-1]
		switch {
		case width > top:
			stack = append(stack, width)
			emitSynthetic(IndentMarker)
		case width < top:
			for len(stack) > 1 && stack[len(stack)-1] > width {
				stack = stack[:len(stack)-1]
				emitSynthetic(DedentMarker)
			}
		}

		for i := len(prefix); i < len(text); i++ {
			emit(text[i], ln.start+i)
		}
		if hasNewline {
			emit('\n', ln.start+len(text))
		}
		pos = ln.start + len(text) + boolToInt(hasNewline)
	}
	_ = pos

	for len(stack) > 1 {
		stack = stack[:len(stack)-1]
		emitSynthetic(DedentMarker)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &Result{
		Original:    source,
		Transformed: out.String(),
		ReverseMap:  rev,
	}, nil
}

// measureIndent returns the indent width of prefix (each char counts as 1
// column) and whether it mixes tabs and spaces relative to the style
// established by the first indented line.
func measureIndent(prefix string, style *indentStyle) (width int, mixed bool) {
	if prefix == "" {
		return 0, false
	}
	hasSpace := strings.ContainsRune(prefix, ' ')
	hasTab := strings.ContainsRune(prefix, '\t')
	if hasSpace && hasTab {
		return 0, true
	}
	var this indentStyle
	if hasTab {
		this = styleTabs
	} else {
		this = styleSpaces
	}
	if *style == styleUnknown {
		*style = this
	} else if *style != this {
		return 0, true
	}
	return len(prefix), false
}

type rawLine struct {
	start       int
	text        string
	hasNewline  bool
}

// splitKeepingOffsets splits source into lines, recording each line's start
// byte offset and whether it was newline-terminated (the final line may
// not be).
func splitKeepingOffsets(source string) []rawLine {
	var lines []rawLine
	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			lines = append(lines, rawLine{start: start, text: source[start:i], hasNewline: true})
			start = i + 1
		}
	}
	if start < len(source) {
		lines = append(lines, rawLine{start: start, text: source[start:], hasNewline: false})
	} else if len(source) == 0 {
		// empty source: no lines at all
	}
	return lines
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
