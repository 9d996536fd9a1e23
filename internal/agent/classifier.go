package agent

import (
	"context"
	"strings"

	"github.com/run-bigpig/ava/internal/prompts"
)

// ClassifierAgent 意图分类 Agent
// 只返回模型原文，解析交给 parser 包
type ClassifierAgent struct {
	completer Completer
	prompts   prompts.Classifier
}

// NewClassifierAgent 创建分类 Agent
func NewClassifierAgent(c Completer, p prompts.Classifier) *ClassifierAgent {
	return &ClassifierAgent{completer: c, prompts: p}
}

// Evaluate 对用户输入做意图分类，digest 为空时不附带会话摘要
func (a *ClassifierAgent) Evaluate(ctx context.Context, userText, digest string) (string, error) {
	return a.completer.Complete(ctx, a.buildPrompt(userText, digest))
}

func (a *ClassifierAgent) buildPrompt(userText, digest string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(a.prompts.Mandate))
	sb.WriteString("\n\n")
	if digest != "" {
		sb.WriteString(a.prompts.Context)
		sb.WriteString("\n")
		sb.WriteString(digest)
		sb.WriteString("\n\n")
	}
	sb.WriteString(a.prompts.Input)
	sb.WriteString(" ")
	sb.WriteString(userText)
	return sb.String()
}
