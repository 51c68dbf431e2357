package texts

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLines reads one entry per line from the provided file path.
func LoadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only text file.
			_ = cerr
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyPool)
	}
	return lines, nil
}

// FilterFunc returns true when an entry should be kept.
type FilterFunc func(string) bool

// Filter keeps the entries accepted by keep.
func Filter(entries []string, keep FilterFunc) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// SingleWord rejects entries containing whitespace; words mode compares whole input.
func SingleWord(entry string) bool {
	return entry != "" && !strings.ContainsAny(entry, " \t")
}
