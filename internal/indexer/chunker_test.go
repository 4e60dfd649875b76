package indexer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-ingest/internal/chunk"
	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
	"github.com/mvp-joe/code-ingest/internal/indexer/parsers"
)

// Test Plan for Chunker:
// - A Python file with a function and a class yields one file chunk with two
//   children; the class carries one method and one attribute
// - File metadata records the relative source, stem, extension, type and timestamp
// - Raw source becomes the file chunk's code only when nothing was extracted
// - Children follow namespace, classes, functions, components, types,
//   dependencies, imports, exports
// - Yii2 file descriptions use the capitalized directory type
// - TSX files report file type "tsx"

func fixedChunker() *chunker {
	return &chunker{now: func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func TestChunker_PythonFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/service.py": `def helper(x):
    return x * 2


class Service:
    retries = 3

    def run(self):
        return helper(self.retries)
`,
	})

	path := filepath.Join(root, "pkg", "service.py")
	result, err := parsers.NewPythonParser().Parse(context.Background(), path)
	require.NoError(t, err)

	profile, err := LookupProfile(ProjectPython)
	require.NoError(t, err)

	file := FileEntry{Path: path, RelPath: filepath.Join("pkg", "service.py")}
	fc, err := fixedChunker().BuildFileChunk(file, profile, result)
	require.NoError(t, err)

	assert.Equal(t, chunk.KindFile, fc.Type)
	assert.Equal(t, "service", fc.Name)
	assert.Equal(t, "Python file: service.py", fc.Description)
	assert.NotEmpty(t, fc.ID)
	assert.Nil(t, fc.Code)

	require.NotNil(t, fc.Metadata)
	assert.Equal(t, "pkg/service.py", fc.Metadata.Source)
	assert.Equal(t, "service", fc.Metadata.FileName)
	assert.Equal(t, ".py", fc.Metadata.FileExtension)
	assert.Equal(t, "python", fc.Metadata.FileType)
	assert.Empty(t, fc.Metadata.DirectoryType)
	assert.Equal(t, "2024-03-01T12:00:00Z", fc.Metadata.Timestamp)

	require.Len(t, fc.Chunks, 2)

	class := fc.Chunks[0]
	assert.Equal(t, chunk.KindClass, class.Type)
	assert.Equal(t, "Service", class.Name)
	assert.Equal(t, "Class definition: Service", class.Description)
	require.Len(t, class.Methods, 1)
	assert.Equal(t, "run", class.Methods[0].Name)
	assert.Equal(t, "Method run in class Service", class.Methods[0].Description)
	assert.Contains(t, class.Methods[0].CodeText(), "def run(self):")
	require.Len(t, class.Attributes, 1)
	assert.Equal(t, "retries", class.Attributes[0].Name)
	assert.Equal(t, chunk.KindAttribute, class.Attributes[0].Type)
	assert.Empty(t, class.Properties)

	fn := fc.Chunks[1]
	assert.Equal(t, chunk.KindFunction, fn.Type)
	assert.Equal(t, "helper", fn.Name)
	assert.Equal(t, "Global function helper", fn.Description)
	assert.Equal(t, 1, fn.StartLine)
	assert.Equal(t, 2, fn.EndLine)
}

func TestChunker_RawCodeOnlyWithoutChildren(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"settings.py": "# settings\n",
	})
	path := filepath.Join(root, "settings.py")

	profile, err := LookupProfile(ProjectPython)
	require.NoError(t, err)
	file := FileEntry{Path: path, RelPath: "settings.py"}

	empty, err := fixedChunker().BuildFileChunk(file, profile, &extraction.Result{})
	require.NoError(t, err)
	assert.Empty(t, empty.Chunks)
	assert.Equal(t, "# settings\n", empty.CodeText())

	withDeps, err := fixedChunker().BuildFileChunk(file, profile, &extraction.Result{Dependencies: []string{"os"}})
	require.NoError(t, err)
	require.Len(t, withDeps.Chunks, 1)
	assert.Nil(t, withDeps.Code)
	assert.Equal(t, chunk.KindDependencies, withDeps.Chunks[0].Type)
	assert.Equal(t, "List of dependencies", withDeps.Chunks[0].Description)
	assert.Equal(t, []string{"os"}, withDeps.Chunks[0].Dependencies)
}

func TestChunker_ChildOrder(t *testing.T) {
	t.Parallel()

	ns := `App\Models`
	exportName := "Button"
	result := &extraction.Result{
		Namespace:       &ns,
		Exports:         []extraction.ExportInfo{{Name: &exportName, Type: "named"}},
		Imports:         []string{"react"},
		Dependencies:    []string{`yii\db\ActiveRecord`},
		Types:           []extraction.TypeInfo{{Name: "Props", Kind: "interface"}},
		ReactComponents: []extraction.ComponentInfo{{Name: "Button", Props: []string{"label"}}},
		Functions:       []extraction.FunctionInfo{{Name: "helper"}},
		Classes: []extraction.ClassInfo{{
			Name:       "User",
			Methods:    []extraction.FunctionInfo{{Name: "save", Modifiers: extraction.Modifiers{"public"}}},
			Properties: []extraction.PropertyInfo{{Name: "email", Type: "string"}},
		}},
	}

	profile, err := LookupProfile(ProjectYii2)
	require.NoError(t, err)
	file := FileEntry{Path: "/project/models/User.php", RelPath: "models/User.php", DirType: "models"}

	fc, err := fixedChunker().BuildFileChunk(file, profile, result)
	require.NoError(t, err)

	var kinds []chunk.Kind
	for _, c := range fc.Chunks {
		kinds = append(kinds, c.Type)
	}
	assert.Equal(t, []chunk.Kind{
		chunk.KindNamespace,
		chunk.KindClass,
		chunk.KindFunction,
		chunk.KindReactComponent,
		chunk.KindType,
		chunk.KindDependencies,
		chunk.KindImports,
		chunk.KindExport,
	}, kinds)

	assert.Equal(t, "Models file: User.php", fc.Description)
	assert.Equal(t, "models", fc.Metadata.DirectoryType)
	assert.Equal(t, `Namespace: App\Models`, fc.Chunks[0].Description)
	assert.Equal(t, []string{"public"}, []string(fc.Chunks[1].Methods[0].Modifiers))
	assert.Equal(t, "Property email in class User", fc.Chunks[1].Properties[0].Description)
	assert.Equal(t, "string", fc.Chunks[1].Properties[0].ValueType)
	assert.Equal(t, "React component: Button", fc.Chunks[3].Description)
	assert.Equal(t, "Type Props (interface)", fc.Chunks[4].Description)
	assert.Equal(t, "List of imports", fc.Chunks[6].Description)
	assert.Equal(t, "Export Button", fc.Chunks[7].Description)
}

func TestChunker_TSXFileType(t *testing.T) {
	t.Parallel()

	profile, err := LookupProfile(ProjectReact)
	require.NoError(t, err)

	file := FileEntry{Path: "/project/src/App.tsx", RelPath: "src/App.tsx"}
	result := &extraction.Result{Functions: []extraction.FunctionInfo{{Name: "main"}}}

	fc, err := fixedChunker().BuildFileChunk(file, profile, result)
	require.NoError(t, err)
	assert.Equal(t, "tsx", fc.Metadata.FileType)
	assert.Equal(t, "TS/TSX file: App.tsx", fc.Description)
}
