// Package llm routes prompts to the configured model backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/config"
	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/metrics"
	"github.com/TheAllen/Acadia/internal/models"
)

// Invoker sends a single system prompt to the chosen model and returns the
// raw response text.
type Invoker interface {
	InvokeModel(ctx context.Context, prompt string, choice models.ModelChoice) (string, error)
}

type InvokerFunc func(ctx context.Context, prompt string, choice models.ModelChoice) (string, error)

func (f InvokerFunc) InvokeModel(ctx context.Context, prompt string, choice models.ModelChoice) (string, error) {
	return f(ctx, prompt, choice)
}

// Generator performs one completion against one backend.
type Generator func(ctx context.Context, prompt string) (string, error)

type Options struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:     cfg.ModelTimeout,
		MaxAttempts: cfg.ModelMaxAttempts,
		BaseDelay:   cfg.ModelRetryBaseDelay,
		MaxDelay:    cfg.ModelRetryMaxDelay,
	}
}

type Client struct {
	generators map[models.ModelChoice]Generator
	opts       Options
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient wires the OpenAI backend (when a key is configured) and the
// local Ollama backend.
func NewClient(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Client, error) {
	gens := make(map[models.ModelChoice]Generator)

	if cfg.OpenAIKey != "" {
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIKey),
			openai.WithModel(cfg.OpenAIModel),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.OpenAIOrg != "" {
			opts = append(opts, openai.WithOrganization(cfg.OpenAIOrg))
		}
		remote, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI client: %w", err)
		}
		gens[models.ModelPrimaryRemote] = fromModel(remote)
	}

	local, err := ollama.New(
		ollama.WithModel(cfg.OllamaModel),
		ollama.WithServerURL(cfg.OllamaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating Ollama client: %w", err)
	}
	gens[models.ModelLocalDefault] = fromModel(local)

	return NewClientWithGenerators(gens, OptionsFromConfig(cfg), logger, m), nil
}

func NewClientWithGenerators(gens map[models.ModelChoice]Generator, opts Options, logger *zap.Logger, m *metrics.Metrics) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{generators: gens, opts: opts, logger: logger.Named("llm"), metrics: m}
}

func fromModel(model llms.Model) Generator {
	return func(ctx context.Context, prompt string) (string, error) {
		return llms.GenerateFromSinglePrompt(ctx, model, prompt)
	}
}

func (c *Client) InvokeModel(ctx context.Context, prompt string, choice models.ModelChoice) (string, error) {
	gen, ok := c.generators[choice]
	if !ok {
		return "", &aerrors.ModelError{
			Provider: string(choice),
			Err:      fmt.Errorf("no backend configured for %q", choice),
		}
	}

	bo := backoff.NewExponentialBackOff()
	if c.opts.BaseDelay > 0 {
		bo.InitialInterval = c.opts.BaseDelay
	}
	if c.opts.MaxDelay > 0 {
		bo.MaxInterval = c.opts.MaxDelay
	}

	attempt := 0
	op := func() (string, error) {
		attempt++
		text, err := c.call(ctx, gen, prompt, choice)
		if err == nil {
			return text, nil
		}
		if !aerrors.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		c.logger.Warn("model call failed, retrying",
			zap.String("model", string(choice)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return "", err
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.opts.MaxAttempts)))
	if err != nil {
		c.metrics.RecordModelError(string(choice))
		return "", fmt.Errorf("failed to invoke %s after %d attempt(s): %w", choice, attempt, err)
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, gen Generator, prompt string, choice models.ModelChoice) (string, error) {
	callCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := gen(callCtx, prompt)
	c.metrics.ObserveModelCall(string(choice), time.Since(start))

	if err != nil {
		return "", classify(string(choice), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", &aerrors.ModelError{Provider: string(choice), Err: errors.New("empty response")}
	}
	return text, nil
}

var statusPattern = regexp.MustCompile(`status code:?\s*(\d{3})`)

func classify(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &aerrors.ModelError{Provider: provider, Transient: true, Err: fmt.Errorf("%w: %v", aerrors.ErrTimeout, err)}
	}
	if errors.Is(err, context.Canceled) {
		return &aerrors.ModelError{Provider: provider, Err: err}
	}
	me := &aerrors.ModelError{Provider: provider, Err: err}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		me.StatusCode, _ = strconv.Atoi(m[1])
	} else {
		// No status means the request never got an HTTP answer.
		me.Transient = true
	}
	return me
}
