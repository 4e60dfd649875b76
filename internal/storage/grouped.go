package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mvp-joe/code-ingest/internal/chunk"
)

// FallbackGroup collects chunks that lack the grouping key.
const FallbackGroup = "unknown"

// DefaultGroupKey groups human-readable output by source file.
const DefaultGroupKey = "metadata.source"

const indent = "    "

// Group is one entry of the grouped human-readable output.
type Group struct {
	GroupKey string         `json:"group_key"`
	Items    []*chunk.Chunk `json:"items"`
}

// GroupChunks buckets chunks by the value at keyPath, a dotted path into the
// chunk's JSON form such as "metadata.source". Groups keep first-seen order
// and items keep input order. A chunk missing any path segment goes to
// FallbackGroup with a warning.
func GroupChunks(chunks []*chunk.Chunk, keyPath string, logger zerolog.Logger) (*orderedmap.OrderedMap[string, *Group], error) {
	groups := orderedmap.New[string, *Group]()
	parts := strings.Split(keyPath, ".")

	for _, c := range chunks {
		key, ok, err := resolveKey(c, parts)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn().Str("key", keyPath).Str("chunk_id", c.ID).Str("name", c.Name).
				Msgf("grouping key missing, using %q group", FallbackGroup)
			key = FallbackGroup
		}

		g, exists := groups.Get(key)
		if !exists {
			g = &Group{GroupKey: key}
			groups.Set(key, g)
		}
		g.Items = append(g.Items, c)
	}

	return groups, nil
}

// resolveKey walks parts through the chunk's JSON mapping.
func resolveKey(c *chunk.Chunk, parts []string) (string, bool, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", false, fmt.Errorf("failed to encode chunk %s: %w", c.ID, err)
	}

	var current any
	if err := json.Unmarshal(data, &current); err != nil {
		return "", false, fmt.Errorf("failed to decode chunk %s: %w", c.ID, err)
	}

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return "", false, nil
		}
		current, ok = m[part]
		if !ok || current == nil {
			return "", false, nil
		}
	}

	switch v := current.(type) {
	case string:
		return v, true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", false, err
		}
		return string(raw), true, nil
	}
}

// WriteGrouped writes chunks as 4-space indented JSON. With a key path the
// document is an object of {group_key, items} entries in first-seen order;
// without one it is a flat list.
func WriteGrouped(w io.Writer, chunks []*chunk.Chunk, keyPath string, logger zerolog.Logger) error {
	if keyPath == "" {
		if chunks == nil {
			chunks = []*chunk.Chunk{}
		}
		data, err := encodeIndented(chunks, "")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}

	groups, err := GroupChunks(chunks, keyPath, logger)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if groups.Len() == 0 {
		buf.WriteString("{}\n")
		_, err := w.Write(buf.Bytes())
		return err
	}

	buf.WriteString("{\n")
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		key, err := encodeIndented(pair.Key, indent)
		if err != nil {
			return err
		}
		value, err := encodeIndented(pair.Value, indent)
		if err != nil {
			return err
		}

		buf.WriteString(indent)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if pair.Next() != nil {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	_, err = w.Write(buf.Bytes())
	return err
}

// encodeIndented encodes v with 4-space indentation under prefix, without
// HTML escaping or a trailing newline.
func encodeIndented(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode grouped output: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
