package agent

import (
	"context"
	"strings"

	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/prompts"
)

// RiskProfileAgent 根据会话记录生成风险画像 JSON，不与用户交互
type RiskProfileAgent struct {
	completer Completer
	prompts   prompts.Risk
}

// NewRiskProfileAgent 创建风险画像 Agent
func NewRiskProfileAgent(c Completer, p prompts.Risk) *RiskProfileAgent {
	return &RiskProfileAgent{completer: c, prompts: p}
}

// Assess 返回模型原文，解析由 parser.ParseRiskProfile 完成
func (a *RiskProfileAgent) Assess(ctx context.Context, history []models.Turn) (string, error) {
	out, err := a.completer.Complete(ctx, a.buildPrompt(history))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// buildPrompt 只渲染用户与顾问之间的对话
func (a *RiskProfileAgent) buildPrompt(history []models.Turn) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(a.prompts.Mandate))
	sb.WriteString("\n\n")
	sb.WriteString(a.prompts.Conversation)
	sb.WriteString("\n")
	for _, t := range history {
		if t.Role != models.RoleUser && t.Role != models.RoleAssistant {
			continue
		}
		sb.WriteString(RoleLabel(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(a.prompts.Instruction)
	return sb.String()
}
