package parsers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for externalParser:
// - Decodes a well-formed document, including bare-name classes and boolean static flags
// - Runs the tool in the tool's own directory
// - Non-zero exit is ErrParseFailure carrying stderr
// - Missing script is ErrToolUnavailable
// - Missing interpreter is ErrToolUnavailable
// - Non-JSON stdout is ErrParseFailure
// - {"error": ...} is ErrSourceError
// - Timeout is ErrParseFailure
// - New() selects builtin or external parsers by mode

// writeTool writes an executable sh script and returns its path.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func shTool(script string) ToolConfig {
	return ToolConfig{Mode: ModeExternal, Interpreter: "sh", Script: script, Timeout: 10 * time.Second}
}

func TestExternalParser_DecodesDocument(t *testing.T) {
	t.Parallel()

	script := writeTool(t, `cat <<'EOF'
{
  "namespace": "app\\models",
  "classes": [
    "Legacy",
    {"name": "User", "code": "class User {}", "methods": [{"name": "save", "modifiers": ["public"]}],
     "properties": [{"name": "id", "static": true, "default_value": "0"}]}
  ],
  "functions": [{"name": "helper", "start_line": 3, "end_line": 5}],
  "dependencies": ["yii\\db\\ActiveRecord"]
}
EOF`)

	parser := NewExternalParser("php", shTool(script))
	result, err := parser.Parse(context.Background(), "model.php")
	require.NoError(t, err)

	require.NotNil(t, result.Namespace)
	assert.Equal(t, `app\models`, *result.Namespace)
	require.Len(t, result.Classes, 2)
	assert.Equal(t, "Legacy", result.Classes[0].Name)
	assert.Equal(t, "User", result.Classes[1].Name)
	require.Len(t, result.Classes[1].Methods, 1)
	assert.Equal(t, []string{"public"}, []string(result.Classes[1].Methods[0].Modifiers))
	require.Len(t, result.Functions, 1)
	assert.Equal(t, 3, result.Functions[0].StartLine)
	assert.Equal(t, []string{`yii\db\ActiveRecord`}, result.Dependencies)
	assert.Equal(t, "php", parser.Language())
}

func TestExternalParser_RunsInToolDirectory(t *testing.T) {
	t.Parallel()

	script := writeTool(t, `printf '{"dependencies": ["%s"]}' "$(pwd)"`)

	result, err := NewExternalParser("php", shTool(script)).Parse(context.Background(), "a.php")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Dir(script))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(result.Dependencies[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExternalParser_NonZeroExit(t *testing.T) {
	t.Parallel()

	script := writeTool(t, `echo "boom" >&2; exit 1`)

	_, err := NewExternalParser("php", shTool(script)).Parse(context.Background(), "a.php")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFailure))
	assert.Contains(t, err.Error(), "boom")
}

func TestExternalParser_MissingScript(t *testing.T) {
	t.Parallel()

	cfg := shTool(filepath.Join(t.TempDir(), "missing.js"))
	_, err := NewExternalParser("typescript", cfg).Parse(context.Background(), "a.ts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolUnavailable))
	assert.False(t, errors.Is(err, ErrParseFailure))
}

func TestExternalParser_MissingInterpreter(t *testing.T) {
	t.Parallel()

	cfg := shTool(writeTool(t, `echo '{}'`))
	cfg.Interpreter = "definitely-not-an-interpreter-xyz"

	_, err := NewExternalParser("php", cfg).Parse(context.Background(), "a.php")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolUnavailable))
}

func TestExternalParser_InvalidJSON(t *testing.T) {
	t.Parallel()

	script := writeTool(t, `echo "Fatal error: not json"`)

	_, err := NewExternalParser("php", shTool(script)).Parse(context.Background(), "a.php")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFailure))
}

func TestExternalParser_EmptyOutput(t *testing.T) {
	t.Parallel()

	script := writeTool(t, `true`)

	_, err := NewExternalParser("php", shTool(script)).Parse(context.Background(), "a.php")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFailure))
}

func TestExternalParser_ErrorField(t *testing.T) {
	t.Parallel()

	script := writeTool(t, `echo '{"error": "Syntax error, unexpected EOF on line 3"}'`)

	_, err := NewExternalParser("php", shTool(script)).Parse(context.Background(), "a.php")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceError))
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestExternalParser_Timeout(t *testing.T) {
	t.Parallel()

	cfg := shTool(writeTool(t, `sleep 5; echo '{}'`))
	cfg.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := NewExternalParser("php", cfg).Parse(context.Background(), "a.php")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFailure))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNew_SelectsParser(t *testing.T) {
	t.Parallel()

	p, err := New("python", ToolConfig{})
	require.NoError(t, err)
	assert.IsType(t, &pythonParser{}, p)

	p, err = New("php", ToolConfig{Mode: ModeBuiltin})
	require.NoError(t, err)
	assert.IsType(t, &phpParser{}, p)

	p, err = New("php", ToolConfig{Mode: ModeExternal, Script: "php_parser.php"})
	require.NoError(t, err)
	assert.IsType(t, &externalParser{}, p)

	p, err = New("typescript", ToolConfig{Mode: ModeBuiltin})
	require.NoError(t, err)
	assert.IsType(t, &typeScriptParser{}, p)
	assert.Equal(t, "typescript", p.Language())

	_, err = New("cobol", ToolConfig{})
	assert.Error(t, err)
}
