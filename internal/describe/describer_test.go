package describe

// Test Plan for Describer and Enricher:
// - Requests carry the project-type system prompt, the configured temperature and 256 max tokens
// - A zero temperature is sent as zero
// - Code longer than MaxCodeLength is cut and marked; long messages are split and answers joined
// - Empty code uses the "missing code" prompt as a single request
// - Method prompts include the class description
// - ParseQA reads Q:/A: pairs, multi-line answers and alternate labels
// - Enrich replaces class, method, function, component and file descriptions
// - Enrich attaches Q&A to classes and collects it in the store with context
// - A failing service keeps every template description and adds no Q&A
// - A cancelled context stops enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-ingest/internal/chunk"
	"github.com/mvp-joe/code-ingest/internal/llm"
	"github.com/mvp-joe/code-ingest/internal/storage"
)

func TestDescriber_RequestShape(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "  Handles site pages.  ", nil
	}}
	d := NewDescriber(p, Options{Language: "English", Temperature: DefaultTemperature})

	got, err := d.DescribeClass(context.Background(), "yii2", "SiteController", "class SiteController {}")
	require.NoError(t, err)
	assert.Equal(t, "Handles site pages.", got)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.4, reqs[0].Temperature)
	assert.Equal(t, 256, reqs[0].MaxTokens)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
	assert.Contains(t, reqs[0].Messages[0].Content, "Yii2 PHP")
	assert.Contains(t, reqs[0].Messages[0].Content, "Always answer in English.")
	assert.Equal(t, "user", reqs[0].Messages[1].Role)
	assert.Contains(t, reqs[0].Messages[1].Content, "class SiteController {}")
}

func TestDescriber_ZeroTemperature(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{}
	d := NewDescriber(p, Options{Temperature: 0})
	_, err := d.DescribeFunction(context.Background(), "python", "helper", "def helper(): pass", "app.py")
	require.NoError(t, err)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Zero(t, reqs[0].Temperature)
}

func TestDescriber_DefaultLanguage(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{}
	d := NewDescriber(p, Options{})
	_, err := d.DescribeFile(context.Background(), "python", "app.py", "print(1)")
	require.NoError(t, err)
	assert.Contains(t, p.Requests()[0].Messages[0].Content, "Always answer in Russian.")
	assert.Contains(t, p.Requests()[0].Messages[0].Content, "Python")
}

func TestDescriber_TruncateAndSplit(t *testing.T) {
	t.Parallel()

	var n int
	p := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		n++
		return "part" + string(rune('0'+n)), nil
	}}
	d := NewDescriber(p, Options{MaxCodeLength: 100, MaxMessageLength: 80})

	code := strings.Repeat("x", 250)
	got, err := d.DescribeFunction(context.Background(), "python", "helper", code, "util.py")
	require.NoError(t, err)

	reqs := p.Requests()
	require.Greater(t, len(reqs), 1)
	var sent strings.Builder
	for _, r := range reqs {
		assert.LessOrEqual(t, len([]rune(r.Messages[1].Content)), 80)
		sent.WriteString(r.Messages[1].Content)
	}
	assert.Contains(t, sent.String(), strings.Repeat("x", 100)+ShortenedMarker)
	assert.NotContains(t, sent.String(), strings.Repeat("x", 101))

	parts := make([]string, len(reqs))
	for i := range reqs {
		parts[i] = "part" + string(rune('1'+i))
	}
	assert.Equal(t, strings.Join(parts, "\n"), got)
}

func TestDescriber_EmptyCode(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{}
	d := NewDescriber(p, Options{MaxMessageLength: 10})

	_, err := d.DescribeClass(context.Background(), "bitrix", "Empty", "   ")
	require.NoError(t, err)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Messages[1].Content, "missing or empty")
}

func TestDescriber_MethodIncludesClassDescription(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{}
	d := NewDescriber(p, Options{})

	_, err := d.DescribeMethod(context.Background(), "yii2", "actionIndex", "public function actionIndex() {}", "SiteController", "Renders the home page")
	require.NoError(t, err)

	content := p.Requests()[0].Messages[1].Content
	assert.Contains(t, content, "actionIndex")
	assert.Contains(t, content, "SiteController")
	assert.Contains(t, content, "Renders the home page")
}

func TestDescriber_ServiceError(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "", llm.ErrService
	}}
	d := NewDescriber(p, Options{})

	_, err := d.DescribeFile(context.Background(), "python", "a.py", "x = 1")
	assert.ErrorIs(t, err, llm.ErrService)

	blank := NewDescriber(&llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "   ", nil
	}}, Options{})
	_, err = blank.DescribeFile(context.Background(), "python", "a.py", "x = 1")
	assert.ErrorIs(t, err, llm.ErrService)
}

func TestParseQA(t *testing.T) {
	t.Parallel()

	text := `Here are the pairs:

1. Q: What does User store?
A: Account data.
It also keeps the password hash.

**Q:** How is User saved?
**A:** Through save().

Вопрос: Где валидация?
Ответ: В rules().

Q: Dangling question without answer`

	pairs := ParseQA(text)
	require.Len(t, pairs, 3)
	assert.Equal(t, chunk.QAPair{Question: "What does User store?", Answer: "Account data.\nIt also keeps the password hash."}, pairs[0])
	assert.Equal(t, chunk.QAPair{Question: "How is User saved?", Answer: "Through save()."}, pairs[1])
	assert.Equal(t, chunk.QAPair{Question: "Где валидация?", Answer: "В rules()."}, pairs[2])

	assert.Empty(t, ParseQA("no pairs here"))
}

func TestTruncateAndSplit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "абв"+ShortenedMarker, Truncate("абвгд", 3))
	assert.Equal(t, []string{"абв", "гд"}, Split("абвгд", 3))
	assert.Equal(t, []string{"abc"}, Split("abc", 0))
}

func sampleFile() *chunk.Chunk {
	return &chunk.Chunk{
		ID:          "file",
		Type:        chunk.KindFile,
		Name:        "User",
		Description: "Models file: User.php",
		Metadata:    &chunk.FileMetadata{Source: "models/User.php"},
		Chunks: []*chunk.Chunk{
			{
				ID:          "class",
				Type:        chunk.KindClass,
				Name:        "User",
				Description: "Class definition: User",
				Code:        chunk.Text("class User { public function save() {} }"),
				Methods: []*chunk.Chunk{{
					ID:          "method",
					Type:        chunk.KindMethod,
					Name:        "save",
					Description: "Method save in class User",
					Code:        chunk.Text("public function save() {}"),
				}},
			},
			{
				ID:          "fn",
				Type:        chunk.KindFunction,
				Name:        "helper",
				Description: "Global function helper",
				Code:        chunk.Text("function helper() {}"),
			},
			{
				ID:           "deps",
				Type:         chunk.KindDependencies,
				Description:  "List of dependencies",
				Dependencies: []string{`yii\db\ActiveRecord`},
			},
		},
	}
}

func TestEnricher_Enrich(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		user := req.Messages[1].Content
		switch {
		case strings.Contains(user, "the file "):
			return "User model file.", nil
		case strings.Contains(user, "question and answer pairs"):
			return "Q: What is User?\nA: An account model.", nil
		case strings.Contains(user, "method save"):
			return "Saves the user.", nil
		case strings.Contains(user, "class User"):
			return "Represents a user.", nil
		case strings.Contains(user, "function helper"):
			return "Helps.", nil
		default:
			return "unexpected", nil
		}
	}}
	qa := storage.NewQAStore()
	e := NewEnricher(NewDescriber(p, Options{}), qa, zerolog.Nop())

	file := sampleFile()
	e.Enrich(context.Background(), "yii2", file)

	class := file.Chunks[0]
	assert.Equal(t, "Represents a user.", class.Description)
	assert.Equal(t, "Saves the user.", class.Methods[0].Description)
	assert.Equal(t, "Helps.", file.Chunks[1].Description)
	assert.Equal(t, "List of dependencies", file.Chunks[2].Description)
	assert.Equal(t, "User model file.", file.Description)

	require.Len(t, class.QA, 1)
	assert.Equal(t, "An account model.", class.QA[0].Answer)
	assert.Equal(t, "models/User.php: User", class.QA[0].Context)
	assert.Equal(t, class.QA, qa.All())

	// The method prompt saw the generated class description.
	var methodPrompt string
	for _, r := range p.Requests() {
		if strings.Contains(r.Messages[1].Content, "method save") {
			methodPrompt = r.Messages[1].Content
		}
	}
	assert.Contains(t, methodPrompt, "Represents a user.")
}

func TestEnricher_FallbackOnFailure(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "", errors.Join(llm.ErrService, errors.New("connection refused"))
	}}
	qa := storage.NewQAStore()
	e := NewEnricher(NewDescriber(p, Options{}), qa, zerolog.Nop())

	file := sampleFile()
	e.Enrich(context.Background(), "yii2", file)

	assert.Equal(t, sampleFile(), file)
	assert.Equal(t, 0, qa.Len())
}

func TestEnricher_WithoutQA(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{}
	e := NewEnricher(NewDescriber(p, Options{}), nil, zerolog.Nop())

	file := sampleFile()
	e.Enrich(context.Background(), "yii2", file)

	assert.Empty(t, file.Chunks[0].QA)
	for _, r := range p.Requests() {
		assert.NotContains(t, r.Messages[1].Content, "question and answer pairs")
	}
}

func TestEnricher_Cancelled(t *testing.T) {
	t.Parallel()

	p := &llm.MockProvider{}
	e := NewEnricher(NewDescriber(p, Options{}), storage.NewQAStore(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	file := sampleFile()
	e.Enrich(ctx, "yii2", file)
	assert.Empty(t, p.Requests())
	assert.Equal(t, "Models file: User.php", file.Description)
}
