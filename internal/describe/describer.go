// Package describe generates natural-language descriptions and Q&A pairs for
// code chunks through a chat-completions service.
package describe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/code-ingest/internal/chunk"
	"github.com/mvp-joe/code-ingest/internal/llm"
)

// Default request budgets.
const (
	DefaultMaxCodeLength    = 3500
	DefaultMaxMessageLength = 4096
	DefaultTemperature      = 0.4
	DefaultMaxTokens        = 256
	DefaultQAPairs          = 3
	DefaultLanguage         = "Russian"
)

// ShortenedMarker is appended to code cut at MaxCodeLength.
const ShortenedMarker = "\n\n[... content shortened]"

// Options tunes prompts and request budgets. Zero values use the defaults.
type Options struct {
	// Language the answers are written in.
	Language string

	// MaxCodeLength truncates element code, in characters.
	MaxCodeLength int

	// MaxMessageLength splits the user message into parts, in characters.
	// Each part is sent separately and the answers are joined.
	MaxMessageLength int

	// Temperature is sent as given; zero is a valid setting.
	Temperature float64
	MaxTokens   int

	// QAPairs is the number of pairs requested per class.
	QAPairs int
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.MaxCodeLength <= 0 {
		o.MaxCodeLength = DefaultMaxCodeLength
	}
	if o.MaxMessageLength <= 0 {
		o.MaxMessageLength = DefaultMaxMessageLength
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// Describer turns code into descriptions with one or more chat requests.
type Describer struct {
	provider llm.Provider
	opts     Options
}

// NewDescriber creates a describer backed by provider.
func NewDescriber(provider llm.Provider, opts Options) *Describer {
	return &Describer{provider: provider, opts: opts.withDefaults()}
}

// DescribeFile describes a whole file.
func (d *Describer) DescribeFile(ctx context.Context, projectType, fileName, code string) (string, error) {
	return d.ask(ctx, elementFile, projectType, subject{name: fileName}, code)
}

// DescribeClass describes a class.
func (d *Describer) DescribeClass(ctx context.Context, projectType, className, code string) (string, error) {
	return d.ask(ctx, elementClass, projectType, subject{name: className}, code)
}

// DescribeMethod describes a method, given its class's description as context.
func (d *Describer) DescribeMethod(ctx context.Context, projectType, method, code, className, classDescription string) (string, error) {
	return d.ask(ctx, elementMethod, projectType, subject{name: method, owner: className, context: classDescription}, code)
}

// DescribeFunction describes a module-level function.
func (d *Describer) DescribeFunction(ctx context.Context, projectType, function, code, fileName string) (string, error) {
	return d.ask(ctx, elementFunction, projectType, subject{name: function, owner: fileName}, code)
}

// DescribeComponent describes a React component.
func (d *Describer) DescribeComponent(ctx context.Context, projectType, component, code, fileName string) (string, error) {
	return d.ask(ctx, elementComponent, projectType, subject{name: component, owner: fileName}, code)
}

// GenerateQA asks for question/answer pairs about a class. Pairs that cannot
// be parsed are dropped; an answer with no pairs is an error.
func (d *Describer) GenerateQA(ctx context.Context, projectType, className, code, classDescription string) ([]chunk.QAPair, error) {
	n := d.opts.QAPairs
	if n <= 0 {
		n = DefaultQAPairs
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("no code to generate Q&A from")
	}

	answer, err := d.ask(ctx, elementQA, projectType, subject{name: className, context: classDescription, pairs: n}, code)
	if err != nil {
		return nil, err
	}

	pairs := ParseQA(answer)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no Q&A pairs in answer", llm.ErrService)
	}
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs, nil
}

// ask sends the prompt for el, split into parts, and joins the trimmed answers.
func (d *Describer) ask(ctx context.Context, el element, projectType string, s subject, code string) (string, error) {
	system := systemPrompt(el, projectType, d.opts.Language)

	var parts []string
	if strings.TrimSpace(code) == "" {
		parts = []string{userPrompt(el, s, projectType, d.opts.Language, "")}
	} else {
		code = Truncate(code, d.opts.MaxCodeLength)
		parts = Split(userPrompt(el, s, projectType, d.opts.Language, code), d.opts.MaxMessageLength)
	}

	answers := make([]string, 0, len(parts))
	for _, part := range parts {
		answer, err := d.provider.Chat(ctx, llm.ChatRequest{
			Messages: []llm.Message{
				{Role: "system", Content: system},
				{Role: "user", Content: part},
			},
			Temperature: d.opts.Temperature,
			MaxTokens:   d.opts.MaxTokens,
		})
		if err != nil {
			return "", err
		}
		answers = append(answers, strings.TrimSpace(answer))
	}

	result := strings.TrimSpace(strings.Join(answers, "\n"))
	if result == "" {
		return "", fmt.Errorf("%w: empty answer", llm.ErrService)
	}
	return result, nil
}

// Truncate cuts s to max characters and appends ShortenedMarker.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + ShortenedMarker
}

// Split cuts s into consecutive parts of at most max characters.
func Split(s string, max int) []string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return []string{s}
	}
	parts := make([]string, 0, len(r)/max+1)
	for start := 0; start < len(r); start += max {
		end := min(start+max, len(r))
		parts = append(parts, string(r[start:end]))
	}
	return parts
}

// ParseQA reads "Q: ... / A: ..." pairs. Answers may span several lines.
// "Question:"/"Answer:" and the Russian "Вопрос:"/"Ответ:" labels are also accepted.
func ParseQA(text string) []chunk.QAPair {
	var (
		pairs   []chunk.QAPair
		current *chunk.QAPair
		inAns   bool
	)

	flush := func() {
		if current != nil && current.Question != "" && strings.TrimSpace(current.Answer) != "" {
			current.Answer = strings.TrimSpace(current.Answer)
			pairs = append(pairs, *current)
		}
		current = nil
		inAns = false
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labelled := strings.TrimLeft(line, "*-0123456789.) ")

		if q, ok := cutLabel(labelled, "Q:", "Question:", "Вопрос:", "В:"); ok {
			flush()
			current = &chunk.QAPair{Question: q}
			continue
		}
		if a, ok := cutLabel(labelled, "A:", "Answer:", "Ответ:", "О:"); ok && current != nil {
			current.Answer = a
			inAns = true
			continue
		}
		if inAns && line != "" {
			current.Answer += "\n" + line
		}
	}
	flush()
	return pairs
}

func cutLabel(line string, labels ...string) (string, bool) {
	for _, label := range labels {
		if len(line) >= len(label) && strings.EqualFold(line[:len(label)], label) {
			return strings.TrimSpace(strings.Trim(line[len(label):], "* ")), true
		}
	}
	return "", false
}
