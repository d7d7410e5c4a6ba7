package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SplitEntries reads free-form entries from r. A line of "---" or "===" starts
// a new entry. Input ends at "done" or "exit" (any case), at two consecutive
// blank lines, or at EOF. Lines are trimmed and joined with "\n".
func SplitEntries(r io.Reader) ([]string, error) {
	var (
		entries   []string
		current   []string
		lastEmpty bool
	)
	flush := func() {
		if len(current) > 0 {
			entries = append(entries, strings.Join(current, "\n"))
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		lower := strings.ToLower(line)
		if lower == "done" || lower == "exit" || (line == "" && lastEmpty) {
			break
		}
		if line == "---" || line == "===" {
			flush()
			lastEmpty = false
			continue
		}
		if line == "" {
			lastEmpty = true
			continue
		}
		current = append(current, line)
		lastEmpty = false
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	flush()
	return entries, nil
}
