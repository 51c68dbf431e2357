package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const wrongSpaceGlyph = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// textView is the slice of engine state the target renderer needs.
type textView struct {
	target []rune
	input  []rune
	// cursor is the next rune to type, or -1 once the text is done.
	cursor int
	// overflow shows typed runes past the end of the target.
	overflow bool
}

func (v textView) styled() []styledRune {
	current, hasCurrent := currentWord(v.target, v.cursor)

	out := make([]styledRune, 0, len(v.target)+len(v.input))
	for i, want := range v.target {
		shown := want
		style := pendingStyle
		switch {
		case i < len(v.input):
			got := v.input[i]
			switch {
			case got == want:
				style = correctStyle
			case want == ' ':
				shown = wrongSpaceGlyph
				style = incorrectStyle
			default:
				style = incorrectStyle
			}
		case want != ' ' && hasCurrent && current.contains(i):
			style = currentWordStyle
		}
		if i == v.cursor && i >= len(v.input) {
			style = style.Underline(true)
		}
		out = append(out, newStyledRune(shown, style.Render(string(shown)), want == ' '))
	}
	if v.overflow && len(v.input) > len(v.target) {
		for _, extra := range v.input[len(v.target):] {
			out = append(out, newStyledRune(extra, incorrectStyle.Render(string(extra)), false))
		}
	}
	return out
}

func newStyledRune(r rune, rendered string, isSpace bool) styledRune {
	return styledRune{s: rendered, width: runewidth.RuneWidth(r), isSpace: isSpace}
}

type span struct {
	start int
	end   int
}

func (s span) contains(i int) bool {
	return i >= s.start && i < s.end
}

// currentWord finds the word under cursor, or the next one when the cursor
// sits on a space. A negative cursor selects the first word.
func currentWord(target []rune, cursor int) (span, bool) {
	words := splitWords(target)
	if len(words) == 0 {
		return span{}, false
	}
	if cursor < 0 {
		return words[0], true
	}
	for _, w := range words {
		if cursor < w.end {
			return w, true
		}
	}
	return words[len(words)-1], true
}

func splitWords(target []rune) []span {
	var words []span
	start := -1
	for i, r := range target {
		switch {
		case r == ' ' && start >= 0:
			words = append(words, span{start: start, end: i})
			start = -1
		case r != ' ' && start < 0:
			start = i
		}
	}
	if start >= 0 {
		words = append(words, span{start: start, end: len(target)})
	}
	return words
}

func joinStyled(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyled breaks lines at the last space that fits in width, or mid-word
// when a word is longer than a line.
func wrapStyled(runes []styledRune, width int) string {
	if width <= 0 {
		return joinStyled(runes)
	}
	var lines []string
	var line []styledRune
	lineWidth, lastSpace := 0, -1
	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace < 0 {
				lines = append(lines, joinStyled(line))
				line, lineWidth = nil, 0
				continue
			}
			lines = append(lines, joinStyled(line[:lastSpace]))
			line = append([]styledRune(nil), line[lastSpace+1:]...)
			lineWidth, lastSpace = 0, -1
			for j, rest := range line {
				lineWidth += rest.width
				if rest.isSpace {
					lastSpace = j
				}
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	lines = append(lines, joinStyled(line))
	return strings.Join(lines, "\n")
}
