package tui

import (
	"strings"
	"testing"
)

func TestStyledCursor(t *testing.T) {
	runes := textView{target: []rune("ab"), input: []rune("a"), cursor: 1}.styled()
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != cursorStyle.Render("b") {
		t.Fatalf("expected cursor style for second rune")
	}
}

func TestStyledNoCursorWhenComplete(t *testing.T) {
	runes := textView{target: []rune("a"), input: []rune("a"), cursor: -1}.styled()
	if len(runes) != 1 || runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected a single correct rune, got %+v", runes)
	}
}

func TestStyledRejectedTail(t *testing.T) {
	runes := textView{target: []rune("ab"), input: []rune("ax"), cursor: 2}.styled()
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style for rejected rune")
	}
}

func TestStyledCurrentWord(t *testing.T) {
	runes := textView{target: []rune("one two"), input: []rune("o"), cursor: 1}.styled()
	if runes[1].s != currentWordStyle.Underline(true).Render("n") {
		t.Fatalf("expected underlined current word rune under the cursor")
	}
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestStyledWrongSpace(t *testing.T) {
	runes := textView{target: []rune("a b"), input: []rune("ax"), cursor: 2}.styled()
	if runes[1].s != incorrectStyle.Render(string(wrongSpaceGlyph)) {
		t.Fatalf("expected red dot for wrong space")
	}
}

func TestStyledOverflow(t *testing.T) {
	v := textView{target: []rune("go"), input: []rune("gone"), cursor: -1}
	if got := len(v.styled()); got != 2 {
		t.Fatalf("expected overflow hidden by default, got %d runes", got)
	}
	v.overflow = true
	runes := v.styled()
	if len(runes) != 4 {
		t.Fatalf("expected 4 runes with overflow, got %d", len(runes))
	}
	if runes[3].s != incorrectStyle.Render("e") {
		t.Fatalf("expected overflow runes to be incorrect")
	}
}

func TestWrapStyledBreaksAtSpaces(t *testing.T) {
	runes := textView{target: []rune("aa bb cc"), cursor: -1}.styled()
	out := wrapStyled(runes, 6)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != joinStyled(runes[:5]) {
		t.Fatalf("expected first line to hold two words")
	}
	if lines[1] != joinStyled(runes[6:]) {
		t.Fatalf("expected second line to hold the last word")
	}
}

func TestWrapStyledSplitsLongWords(t *testing.T) {
	runes := textView{target: []rune("abcdef"), cursor: -1}.styled()
	lines := strings.Split(wrapStyled(runes, 4), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestWrapStyledNoWidth(t *testing.T) {
	runes := textView{target: []rune("a b"), cursor: -1}.styled()
	if wrapStyled(runes, 0) != joinStyled(runes) {
		t.Fatalf("expected unwrapped output")
	}
}
