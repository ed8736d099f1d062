package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptProvider fails with the scripted error for each attempt and
// succeeds once the script runs out.
type scriptProvider struct {
	errs  []error
	calls int
}

func (p *scriptProvider) step() error {
	i := p.calls
	p.calls++
	if i < len(p.errs) {
		return p.errs[i]
	}
	return nil
}

func (p *scriptProvider) Generate(_ context.Context, _ Request) (*Response, error) {
	if err := p.step(); err != nil {
		return nil, err
	}
	return &Response{Text: "ok", Model: "script"}, nil
}

func (p *scriptProvider) GenerateStream(_ context.Context, _ Request) (Stream, error) {
	if err := p.step(); err != nil {
		return nil, err
	}
	return &mockStream{chunks: []string{"ok"}}, nil
}

func (p *scriptProvider) ListModels(_ context.Context) ([]string, error) {
	if err := p.step(); err != nil {
		return nil, err
	}
	return []string{"script"}, nil
}

func (p *scriptProvider) ModelID() string { return "script" }

func testRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, BaseWait: time.Millisecond}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	inner := &scriptProvider{errs: []error{
		&ErrUpstream{StatusCode: 503, Err: errors.New("overloaded")},
		&ErrRateLimit{Err: errors.New("quota")},
	}}
	p := WithRetry(inner, testRetryConfig())

	resp, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryExhaustsAllAttempts(t *testing.T) {
	rl := &ErrRateLimit{Err: errors.New("quota")}
	inner := &scriptProvider{errs: []error{rl, rl, rl, rl, rl}}
	p := WithRetry(inner, testRetryConfig())

	start := time.Now()
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	elapsed := time.Since(start)

	var exhausted *ErrExhausted
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Attempts)
	assert.ErrorIs(t, err, rl.Err)
	assert.Equal(t, 5, inner.calls)

	// Backoff runs after every failed attempt, the last included:
	// 1+2+4+8+16 base units.
	assert.GreaterOrEqual(t, elapsed, 31*time.Millisecond)
}

func TestRetryStopsOnFatalStatus(t *testing.T) {
	fatal := &ErrFatalStatus{StatusCode: 400, Err: errors.New("bad request")}
	inner := &scriptProvider{errs: []error{fatal}}
	p := WithRetry(inner, testRetryConfig())

	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	var got *ErrFatalStatus
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryDoesNotRetryMalformedOutput(t *testing.T) {
	inner := &scriptProvider{errs: []error{&ErrMalformedOutput{Raw: "oops", Err: errors.New("not json")}}}
	p := WithRetry(inner, testRetryConfig())

	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	var got *ErrMalformedOutput
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryTreatsUnknownErrorsAsTransient(t *testing.T) {
	inner := &scriptProvider{errs: []error{errors.New("connection reset")}}
	p := WithRetry(inner, testRetryConfig())

	resp, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryHonorsContextDuringBackoff(t *testing.T) {
	inner := &scriptProvider{errs: []error{
		&ErrUpstream{Err: errors.New("down")},
		&ErrUpstream{Err: errors.New("down")},
	}}
	p := WithRetry(inner, RetryConfig{MaxAttempts: 5, BaseWait: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, Request{Prompt: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryWrapsStreamEstablishment(t *testing.T) {
	inner := &scriptProvider{errs: []error{&ErrUpstream{Err: errors.New("down")}}}
	p := WithRetry(inner, testRetryConfig())

	stream, err := p.GenerateStream(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, 2, inner.calls)
}
