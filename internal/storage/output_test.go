package storage

// Test Plan for JSONL and grouped output:
// - JSONL round-trip reproduces the chunk list exactly, in order
// - JSONL leaves non-ASCII and HTML characters unescaped, one record per line
// - Grouping by metadata.source keeps first-seen group order and input item order
// - Grouping the same list twice yields identical groups
// - A chunk without metadata.source lands in the "unknown" group with a warning
// - Grouped output is 4-space indented; no key path writes a flat list
// - OutputWriter writes <prefix>_<scope>.jsonl, human_readable/<prefix>_<scope>.json
//   and <prefix>_qa_global.jsonl, removing the .tmp directory after every flush

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-ingest/internal/chunk"
)

func richChunk() *chunk.Chunk {
	c := fileChunk("models/Пользователь.php")
	c.Chunks = []*chunk.Chunk{
		{
			ID:          chunk.NewID(),
			Type:        chunk.KindClass,
			Name:        "User",
			Description: "Класс пользователя",
			Code:        chunk.Text("<?php class User { public $a = \"<b>\"; }"),
			StartLine:   1,
			EndLine:     3,
			Methods: []*chunk.Chunk{{
				ID:          chunk.NewID(),
				Type:        chunk.KindMethod,
				Name:        "save",
				Description: "Method save in class User",
				Modifiers:   []string{"public", "static"},
			}},
		},
		{
			ID:           chunk.NewID(),
			Type:         chunk.KindDependencies,
			Description:  "List of dependencies",
			Dependencies: []string{`yii\db\ActiveRecord`},
		},
	}
	return c
}

func TestJSONL_RoundTrip(t *testing.T) {
	t.Parallel()

	chunks := []*chunk.Chunk{richChunk(), fileChunk("b.py"), fileChunk("a.py")}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, chunks))

	got, err := ReadJSONL[*chunk.Chunk](&buf)
	require.NoError(t, err)
	assert.Equal(t, chunks, got)
}

func TestJSONL_Unescaped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, []*chunk.Chunk{richChunk(), fileChunk("x.py")}))

	out := buf.String()
	assert.Contains(t, out, "Пользователь")
	assert.Contains(t, out, "<?php class User")
	assert.NotContains(t, out, `<`)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)))
	}
}

func TestJSONL_ReadInvalidLine(t *testing.T) {
	t.Parallel()

	_, err := ReadJSONL[*chunk.Chunk](strings.NewReader("{\"id\":\"1\"}\n\nnot json\n"))
	assert.ErrorContains(t, err, "line 3")
}

func TestGroupChunks_Order(t *testing.T) {
	t.Parallel()

	b1, a, b2 := fileChunk("b.py"), fileChunk("a.py"), fileChunk("b.py")
	groups, err := GroupChunks([]*chunk.Chunk{b1, a, b2}, DefaultGroupKey, zerolog.Nop())
	require.NoError(t, err)

	var keys []string
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"b.py", "a.py"}, keys)

	g, ok := groups.Get("b.py")
	require.True(t, ok)
	assert.Equal(t, "b.py", g.GroupKey)
	require.Len(t, g.Items, 2)
	assert.Same(t, b1, g.Items[0])
	assert.Same(t, b2, g.Items[1])
}

func TestGroupChunks_Idempotent(t *testing.T) {
	t.Parallel()

	chunks := []*chunk.Chunk{fileChunk("x.py"), fileChunk("y.py"), fileChunk("x.py"), {ID: "bare"}}

	var first, second bytes.Buffer
	require.NoError(t, WriteGrouped(&first, chunks, DefaultGroupKey, zerolog.Nop()))
	require.NoError(t, WriteGrouped(&second, chunks, DefaultGroupKey, zerolog.Nop()))
	assert.Equal(t, first.String(), second.String())
}

func TestGroupChunks_MissingKey(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	orphan := &chunk.Chunk{ID: "orphan", Type: chunk.KindClass, Name: "Loose", Description: "Class definition: Loose"}
	groups, err := GroupChunks([]*chunk.Chunk{fileChunk("a.py"), orphan}, DefaultGroupKey, logger)
	require.NoError(t, err)

	g, ok := groups.Get(FallbackGroup)
	require.True(t, ok)
	require.Len(t, g.Items, 1)
	assert.Same(t, orphan, g.Items[0])
	assert.Contains(t, logs.String(), "grouping key missing")
	assert.Contains(t, logs.String(), `"level":"warn"`)
}

func TestGroupChunks_NonStringKey(t *testing.T) {
	t.Parallel()

	c := fileChunk("a.py")
	c.StartLine = 7
	groups, err := GroupChunks([]*chunk.Chunk{c}, "start_line", zerolog.Nop())
	require.NoError(t, err)

	_, ok := groups.Get("7")
	assert.True(t, ok)
}

func TestWriteGrouped_Format(t *testing.T) {
	t.Parallel()

	chunks := []*chunk.Chunk{fileChunk("b.py"), richChunk()}

	var buf bytes.Buffer
	require.NoError(t, WriteGrouped(&buf, chunks, DefaultGroupKey, zerolog.Nop()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "{\n    \"b.py\": {\n        \"group_key\": \"b.py\",\n"))
	assert.Contains(t, out, "Пользователь")
	assert.Contains(t, out, "<?php")
	assert.Less(t, strings.Index(out, `"b.py":`), strings.Index(out, `"models/Пользователь.php":`))

	var decoded map[string]Group
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Len(t, decoded["models/Пользователь.php"].Items, 1)
	assert.Equal(t, "User", decoded["models/Пользователь.php"].Items[0].Chunks[0].Name)
}

func TestWriteGrouped_FlatList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteGrouped(&buf, []*chunk.Chunk{fileChunk("a.py"), fileChunk("b.py")}, "", zerolog.Nop()))

	assert.True(t, strings.HasPrefix(buf.String(), "[\n    {\n        \"id\""))

	var decoded []*chunk.Chunk
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a.py", decoded[0].Metadata.Source)
}

func TestWriteGrouped_Empty(t *testing.T) {
	t.Parallel()

	var grouped, flat bytes.Buffer
	require.NoError(t, WriteGrouped(&grouped, nil, DefaultGroupKey, zerolog.Nop()))
	require.NoError(t, WriteGrouped(&flat, nil, "", zerolog.Nop()))
	assert.Equal(t, "{}\n", grouped.String())
	assert.Equal(t, "[]\n", flat.String())
}

func TestOutputWriter_Flush(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewOutputWriter(dir, "acme", DefaultGroupKey, zerolog.Nop())
	require.NoError(t, err)

	agg := NewAggregator()
	agg.Add("python_files", fileChunk("a.py"), fileChunk("b.py"))
	agg.Add("yii2_models", richChunk())

	qa := NewQAStore()
	qa.Add(chunk.QAPair{Question: "Что делает User?", Answer: "Хранит пользователей."})

	written, err := w.Flush(agg, qa)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "acme_python_files.jsonl"),
		filepath.Join(dir, "human_readable", "acme_python_files.json"),
		filepath.Join(dir, "acme_yii2_models.jsonl"),
		filepath.Join(dir, "human_readable", "acme_yii2_models.json"),
		filepath.Join(dir, "acme_qa_global.jsonl"),
	}, written)

	f, err := os.Open(filepath.Join(dir, "acme_python_files.jsonl"))
	require.NoError(t, err)
	defer f.Close()
	got, err := ReadJSONL[*chunk.Chunk](f)
	require.NoError(t, err)
	assert.Equal(t, agg.Get("python_files"), got)

	qaData, err := os.ReadFile(filepath.Join(dir, "acme_qa_global.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "{\"question\":\"Что делает User?\",\"answer\":\"Хранит пользователей.\"}\n", string(qaData))

	assert.NoDirExists(t, filepath.Join(dir, ".tmp"))

	// A second flush with the same writer still succeeds and cleans up
	_, err = w.Flush(agg, qa)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, ".tmp"))
}

func TestOutputWriter_NoQAFileWhenEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewOutputWriter(dir, "p", DefaultGroupKey, zerolog.Nop())
	require.NoError(t, err)

	agg := NewAggregator()
	agg.Add("react_ts", fileChunk("src/App.tsx"))

	_, err = w.Flush(agg, NewQAStore())
	require.NoError(t, err)

	_, err = os.Stat(w.QAFile())
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(dir, "p_react_ts.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestOutputWriter_UnwritableDirectory(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewOutputWriter(filepath.Join(blocker, "out"), "p", DefaultGroupKey, zerolog.Nop())
	assert.Error(t, err)
}
