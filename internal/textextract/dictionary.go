package textextract

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// charset maps model output indices to dictionary tokens. Index 0 is the
// CTC blank; dictionary tokens start at index 1.
type charset struct {
	tokens []string
}

// loadCharset reads a dictionary file with one token per line. Empty lines
// are skipped and a UTF-8 BOM on the first line is removed.
func loadCharset(path string) (*charset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return &charset{tokens: tokens}, nil
}

// token returns the text for a model output index, or "" for the blank and
// out-of-range indices.
func (c *charset) token(idx int) string {
	idx-- // shift past the blank
	if idx < 0 || idx >= len(c.tokens) {
		return ""
	}
	return c.tokens[idx]
}
