package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Mode", "Rounds", "Avg WPM"}
	rows := [][]string{
		{"words", "12", "41.5"},
		{"paragraphs", "3", "7.0"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Mode       Rounds Avg WPM" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "words          12    41.5" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "paragraphs      3     7.0" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "Lv"}, [][]string{{"日本", "3"}, {"ab", "10"}}, map[int]bool{1: true})
	if lines[1] != "日本  3" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   10" {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}
