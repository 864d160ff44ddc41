package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalError_Error(t *testing.T) {
	err := &FatalError{Role: "Backend Developer", State: "Discovery", Err: ErrMissingLanguage}
	assert.Contains(t, err.Error(), "Backend Developer")
	assert.Contains(t, err.Error(), "Discovery")
	assert.ErrorIs(t, err, ErrMissingLanguage)
}

func TestFatal_DoesNotDoubleWrap(t *testing.T) {
	inner := Fatal("Project Manager", "Discovery", ErrSpecLocked)
	outer := Fatal("Workflow", "", fmt.Errorf("agent 0: %w", inner))

	role, ok := RoleOf(outer)
	assert.True(t, ok)
	assert.Equal(t, "Project Manager", role)
	assert.Nil(t, Fatal("x", "y", nil))
}

func TestModelError_MatchesUnavailable(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ModelError{Provider: "ollama", Err: inner}
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "ollama")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &ModelError{Provider: "openai", StatusCode: 429, Err: errors.New("slow down")}, true},
		{"bad gateway", &ModelError{Provider: "openai", StatusCode: 502, Err: errors.New("bad gateway")}, true},
		{"transient transport", &ModelError{Provider: "ollama", Transient: true, Err: errors.New("reset")}, true},
		{"timeout", fmt.Errorf("call: %w", ErrTimeout), true},
		{"unauthorized", &ModelError{Provider: "openai", StatusCode: 401, Err: errors.New("bad key")}, false},
		{"decode", ErrDecode, false},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
