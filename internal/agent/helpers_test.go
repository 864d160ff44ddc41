package agent

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/TheAllen/Acadia/internal/build"
	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/templates"
)

// scriptedModel answers each capability from a queue of canned replies.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[string][]string
	calls   []string
	choices []models.ModelChoice
	before  func(capability string)
}

func newScriptedModel(replies map[string][]string) *scriptedModel {
	return &scriptedModel{replies: replies}
}

func (m *scriptedModel) InvokeModel(ctx context.Context, prompt string, choice models.ModelChoice) (string, error) {
	name := strings.TrimPrefix(strings.SplitN(prompt, "\n", 2)[0], "FUNCTION: ")
	if m.before != nil {
		m.before(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	m.choices = append(m.choices, choice)

	queue := m.replies[name]
	if len(queue) == 0 {
		return "", &aerrors.ModelError{Provider: "fake", Err: errors.New("no reply scripted for " + name)}
	}
	m.replies[name] = queue[1:]
	return queue[0], nil
}

type memWriter struct {
	writes []string
}

func (w *memWriter) WriteGeneratedCode(contents, language string) (string, error) {
	w.writes = append(w.writes, contents)
	return "/mem/" + templates.OutputFileName(language), nil
}

type failingWriter struct{}

func (failingWriter) WriteGeneratedCode(contents, language string) (string, error) {
	return "", errors.New("disk full")
}

type fakeBuilder struct {
	results []build.Result
	paths   []string
}

func (b *fakeBuilder) Check(ctx context.Context, path string) (build.Result, error) {
	b.paths = append(b.paths, path)
	res := b.results[0]
	if len(b.results) > 1 {
		b.results = b.results[1:]
	}
	return res, nil
}

type staticProber struct {
	ok   map[string]bool
	seen []string
}

func (p *staticProber) Validate(ctx context.Context, urls []string) []string {
	p.seen = append(p.seen, urls...)
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		if p.ok[u] {
			valid = append(valid, u)
		}
	}
	return valid
}
