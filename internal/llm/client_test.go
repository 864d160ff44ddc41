package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/models"
)

func fastOptions(attempts int) Options {
	return Options{
		Timeout:     time.Second,
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func TestInvokeModel_RoutesByChoice(t *testing.T) {
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{
		models.ModelPrimaryRemote: func(ctx context.Context, prompt string) (string, error) { return "remote:" + prompt, nil },
		models.ModelLocalDefault:  func(ctx context.Context, prompt string) (string, error) { return "local:" + prompt, nil },
	}, fastOptions(1), nil, nil)

	out, err := c.InvokeModel(context.Background(), "hi", models.ModelPrimaryRemote)
	require.NoError(t, err)
	assert.Equal(t, "remote:hi", out)

	out, err = c.InvokeModel(context.Background(), "hi", models.ModelLocalDefault)
	require.NoError(t, err)
	assert.Equal(t, "local:hi", out)
}

func TestInvokeModel_UnconfiguredChoice(t *testing.T) {
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{}, fastOptions(3), nil, nil)

	_, err := c.InvokeModel(context.Background(), "hi", models.ModelPrimaryRemote)
	assert.ErrorIs(t, err, aerrors.ErrModelUnavailable)
}

func TestInvokeModel_RetriesTransientFailures(t *testing.T) {
	calls := 0
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{
		models.ModelLocalDefault: func(ctx context.Context, prompt string) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("API returned unexpected status code: 503: overloaded")
			}
			return "ok", nil
		},
	}, fastOptions(3), nil, nil)

	out, err := c.InvokeModel(context.Background(), "hi", models.ModelLocalDefault)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestInvokeModel_StopsOnPermanentFailure(t *testing.T) {
	calls := 0
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{
		models.ModelLocalDefault: func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "", errors.New("API returned unexpected status code: 401: bad key")
		},
	}, fastOptions(5), nil, nil)

	_, err := c.InvokeModel(context.Background(), "hi", models.ModelLocalDefault)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var me *aerrors.ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 401, me.StatusCode)
}

func TestInvokeModel_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{
		models.ModelLocalDefault: func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "", fmt.Errorf("dial tcp 127.0.0.1:11434: connection refused")
		},
	}, fastOptions(2), nil, nil)

	_, err := c.InvokeModel(context.Background(), "hi", models.ModelLocalDefault)
	assert.ErrorIs(t, err, aerrors.ErrModelUnavailable)
	assert.Equal(t, 2, calls)
}

func TestInvokeModel_TimeoutPerCall(t *testing.T) {
	opts := fastOptions(1)
	opts.Timeout = 20 * time.Millisecond
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{
		models.ModelLocalDefault: func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}, opts, nil, nil)

	_, err := c.InvokeModel(context.Background(), "hi", models.ModelLocalDefault)
	assert.ErrorIs(t, err, aerrors.ErrTimeout)
	assert.ErrorIs(t, err, aerrors.ErrModelUnavailable)
}

func TestInvokeModel_EmptyResponse(t *testing.T) {
	calls := 0
	c := NewClientWithGenerators(map[models.ModelChoice]Generator{
		models.ModelLocalDefault: func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "  \n", nil
		},
	}, fastOptions(3), nil, nil)

	_, err := c.InvokeModel(context.Background(), "hi", models.ModelLocalDefault)
	assert.ErrorIs(t, err, aerrors.ErrModelUnavailable)
	assert.Equal(t, 1, calls)
}
