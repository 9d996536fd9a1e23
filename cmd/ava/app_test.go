package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/config"
)

func TestCallPolicyFallsBackToDefaults(t *testing.T) {
	policy := callPolicy(config.CallConfig{MaxRetries: 0, RatePerMinute: 30})

	assert.Equal(t, agent.DefaultCallTimeout, policy.Timeout)
	assert.Equal(t, agent.DefaultRetryDelay, policy.RetryDelay)
	assert.Equal(t, 0, policy.MaxRetries)
	assert.Equal(t, 30.0, policy.RatePerMinute)

	policy = callPolicy(config.CallConfig{Timeout: 5 * time.Second, RetryDelay: time.Second, MaxRetries: 3})
	assert.Equal(t, 5*time.Second, policy.Timeout)
	assert.Equal(t, time.Second, policy.RetryDelay)
	assert.Equal(t, 3, policy.MaxRetries)
}
