package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	go_openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/run-bigpig/ava/internal/logger"
	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/models"
)

var log = logger.New("agent")

// 默认调用策略
const (
	DefaultCallTimeout = 60 * time.Second
	DefaultMaxRetries  = 1
	DefaultRetryDelay  = 2 * time.Second
	RetryMaxDelay      = 15 * time.Second
)

// ErrModelCall 模型调用失败，errors.Is 可匹配任意 *ModelCallError
var ErrModelCall = errors.New("model call failed")

// ModelCallError 模型调用在重试后仍失败
type ModelCallError struct {
	Agent    models.AgentRole
	Attempts int
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("%s model call failed after %d attempt(s): %v", e.Agent, e.Attempts, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

func (e *ModelCallError) Is(target error) bool { return target == ErrModelCall }

// Completer 把一段 prompt 发送给模型并返回文本
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CallPolicy 单次模型调用的超时、重试与限流
type CallPolicy struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	RatePerMinute float64 // <=0 表示不限流
}

// DefaultCallPolicy 默认策略：60s 超时，失败重试一次
func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		Timeout:    DefaultCallTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// LLMCompleter 基于 model.LLM 的 Completer，每次调用带超时与重试
type LLMCompleter struct {
	role    models.AgentRole
	llm     model.LLM
	policy  CallPolicy
	limiter *rate.Limiter
}

// NewLLMCompleter 创建 Completer
func NewLLMCompleter(role models.AgentRole, llm model.LLM, policy CallPolicy) *LLMCompleter {
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultCallTimeout
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	limit := rate.Inf
	if policy.RatePerMinute > 0 {
		limit = rate.Limit(policy.RatePerMinute / 60)
	}
	return &LLMCompleter{
		role:    role,
		llm:     llm,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Complete 实现 Completer
func (c *LLMCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := 0
	text, err := retryRun(ctx, c.policy, func() (string, error) {
		attempts++
		if attempts > 1 {
			metrics.RecordAgentRetry(string(c.role), c.llm.Name())
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		callCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
		return c.generate(callCtx, prompt)
	})
	if err != nil {
		log.Error("%s 调用失败 (attempts=%d): %v", c.role, attempts, err)
		return "", &ModelCallError{Agent: c.role, Attempts: attempts, Err: err}
	}
	return text, nil
}

// generate 调用 LLM 生成内容，跳过 thinking 部分
func (c *LLMCompleter) generate(ctx context.Context, prompt string) (string, error) {
	req := &model.LLMRequest{
		Contents: []*genai.Content{
			{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(prompt)}},
		},
	}

	start := time.Now()
	var result strings.Builder
	var inputTokens, outputTokens int
	var callErr error
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			callErr = err
			break
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part.Thought {
				continue
			}
			result.WriteString(part.Text)
		}
		if u := resp.UsageMetadata; u != nil {
			inputTokens, outputTokens = int(u.PromptTokenCount), int(u.CandidatesTokenCount)
		}
	}
	metrics.RecordAgentCall(string(c.role), c.llm.Name(), time.Since(start), inputTokens, outputTokens, callErr)
	if callErr != nil {
		return "", callErr
	}

	log.Debug("%s prompt=%d chars, response=%d chars", c.role, len(prompt), result.Len())
	return result.String(), nil
}

// isRetryableError 判断错误是否可重试
// 单次调用超时可重试；4xx（429 除外）属于请求或配置错误，不重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *go_openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	if code == http.StatusTooManyRequests || code == 0 {
		return true
	}
	return code >= http.StatusInternalServerError
}

// retryRun 带指数退避的重试包装
// 在父 ctx 未结束的前提下，最多重试 policy.MaxRetries 次
func retryRun(ctx context.Context, policy CallPolicy, fn func() (string, error)) (string, error) {
	result, err := fn()
	if err == nil || !isRetryableError(err) || ctx.Err() != nil {
		return result, err
	}

	lastErr := err
	for i := 1; i <= policy.MaxRetries; i++ {
		// 指数退避：RetryDelay * 2^(i-1)，上限 RetryMaxDelay
		delay := policy.RetryDelay * time.Duration(1<<(i-1))
		if delay > RetryMaxDelay {
			delay = RetryMaxDelay
		}
		log.Warn("retry %d/%d after %v, last error: %v", i, policy.MaxRetries, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}

		result, err = fn()
		if err == nil {
			log.Info("retry %d/%d succeeded", i, policy.MaxRetries)
			return result, nil
		}
		lastErr = err
		if !isRetryableError(err) || ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}
