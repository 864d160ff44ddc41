package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestValidate_KeepsOnlyOK(t *testing.T) {
	release := make(chan struct{})

	ok := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	broken := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	slow := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	core, logs := observer.New(zapcore.WarnLevel)
	p := New(100*time.Millisecond, 0, zap.New(core), nil)

	got := p.Validate(context.Background(), []string{ok, broken, slow})

	assert.Equal(t, []string{ok}, got)
	assert.Equal(t, 1, logs.FilterMessage("url probe returned non-200").Len())
	assert.Equal(t, 1, logs.FilterMessage("url probe failed").Len())
}

func TestValidate_PreservesOrderAndDuplicates(t *testing.T) {
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	b := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	p := New(time.Second, 0, nil, nil)
	got := p.Validate(context.Background(), []string{b, a, b})

	assert.Equal(t, []string{b, a, b}, got)
}

func TestValidate_EmptyAndMalformed(t *testing.T) {
	p := New(time.Second, 0, nil, nil)

	got := p.Validate(context.Background(), nil)
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = p.Validate(context.Background(), []string{"://not a url", "http://127.0.0.1:1"})
	assert.Empty(t, got)
}

func TestStatus(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusTeapot)
	})

	p := New(time.Second, 50, nil, nil)
	code, err := p.Status(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, code)
}
