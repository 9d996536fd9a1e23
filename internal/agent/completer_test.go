package agent

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/ava/internal/models"
)

func fastPolicy() CallPolicy {
	return CallPolicy{Timeout: time.Second, MaxRetries: 1, RetryDelay: time.Millisecond}
}

func TestCompleteSkipsThought(t *testing.T) {
	llm := &fakeLLM{script: []scripted{{text: "hello", thought: "let me think"}}}
	c := NewLLMCompleter(models.AgentReply, llm, fastPolicy())

	out, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, []string{"prompt"}, llm.prompts)
}

func TestCompleteRetriesOnce(t *testing.T) {
	llm := &fakeLLM{script: []scripted{{err: errors.New("connection reset")}, {text: "ok"}}}
	c := NewLLMCompleter(models.AgentClassifier, llm, fastPolicy())

	out, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, llm.calls())
}

func TestCompleteFailsAfterRetry(t *testing.T) {
	llm := &fakeLLM{script: []scripted{{err: errors.New("upstream 502")}}}
	c := NewLLMCompleter(models.AgentSummarizer, llm, fastPolicy())

	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelCall)

	var mce *ModelCallError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, models.AgentSummarizer, mce.Agent)
	assert.Equal(t, 2, mce.Attempts)
	assert.Equal(t, 2, llm.calls())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	apiErr := &go_openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
	llm := &fakeLLM{script: []scripted{{err: apiErr}}}
	c := NewLLMCompleter(models.AgentRisk, llm, fastPolicy())

	_, err := c.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrModelCall)
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, llm.calls())
}

func TestCompleteTimeoutIsRetried(t *testing.T) {
	llm := &fakeLLM{script: []scripted{{block: true}}}
	c := NewLLMCompleter(models.AgentReply, llm, CallPolicy{
		Timeout:    20 * time.Millisecond,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})

	_, err := c.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrModelCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, llm.calls())
}

func TestCompleteParentCancelStops(t *testing.T) {
	llm := &fakeLLM{script: []scripted{{block: true}}}
	c := NewLLMCompleter(models.AgentReply, llm, fastPolicy())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "prompt")
	assert.ErrorIs(t, err, ErrModelCall)
	assert.Equal(t, 1, llm.calls())
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.True(t, isRetryableError(context.DeadlineExceeded))
	assert.True(t, isRetryableError(&go_openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.True(t, isRetryableError(&go_openai.RequestError{HTTPStatusCode: http.StatusBadGateway}))
	assert.False(t, isRetryableError(&go_openai.RequestError{HTTPStatusCode: http.StatusNotFound}))
}
