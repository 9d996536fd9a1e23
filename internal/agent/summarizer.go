package agent

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/prompts"
)

// Summarizer 把最近的会话或报告压缩成摘要，控制后续 prompt 的长度
// 不做缓存，每次分派都基于当前历史重新计算
type Summarizer struct {
	completer Completer
	prompts   prompts.Summarizer
}

// NewSummarizer 创建摘要 Agent
func NewSummarizer(c Completer, p prompts.Summarizer) *Summarizer {
	return &Summarizer{completer: c, prompts: p}
}

// SummarizeConversation 摘要最近 window 组对话（即最后 window*2 条消息）
func (s *Summarizer) SummarizeConversation(ctx context.Context, history []models.Turn, window int) (string, error) {
	return s.summarize(ctx, s.prompts.Conversation, renderTurns(ConversationWindow(history, window)))
}

// SummarizeReports 摘要最近 window 份报告
func (s *Summarizer) SummarizeReports(ctx context.Context, reports []string, window int) (string, error) {
	return s.summarize(ctx, s.prompts.Reports, strings.Join(ReportWindow(reports, window), "\n\n"))
}

// SummarizeReport 摘要单份研报
func (s *Summarizer) SummarizeReport(ctx context.Context, report string) (string, error) {
	return s.summarize(ctx, s.prompts.Report, report)
}

func (s *Summarizer) summarize(ctx context.Context, instruction, body string) (string, error) {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(s.prompts.Mandate))
	sb.WriteString("\n\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\n")
	sb.WriteString(body)

	out, err := s.completer.Complete(ctx, sb.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ConversationWindow 返回最后 window*2 条消息
func ConversationWindow(history []models.Turn, window int) []models.Turn {
	n := window * 2
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// ReportWindow 返回最后 window 份报告
func ReportWindow(reports []string, window int) []string {
	if window <= 0 {
		return nil
	}
	if len(reports) <= window {
		return reports
	}
	return reports[len(reports)-window:]
}

// renderTurns 每条消息渲染为 "Role: content" 一行
func renderTurns(turns []models.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(RoleLabel(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RoleLabel 角色显示名，如 user -> User
// cases.Caser 有状态，不能跨 goroutine 共享，每次新建
func RoleLabel(role models.Role) string {
	return cases.Title(language.English).String(string(role))
}
