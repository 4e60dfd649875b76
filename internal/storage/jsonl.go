package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineSize bounds a single JSONL record when reading.
const maxLineSize = 64 * 1024 * 1024

// WriteJSONL writes one compact JSON document per line, in order.
// HTML characters and non-ASCII text are written unescaped.
func WriteJSONL[T any](w io.Writer, items []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadJSONL decodes every non-blank line of r as an independent JSON document.
func ReadJSONL[T any](r io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var items []T
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return items, nil
}
