package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/run-bigpig/ava/internal/prompts"
)

var newlineRuns = regexp.MustCompile(`\n+`)

// ReplyContext 回复时可选的上下文块
// nil 表示不存在，对应段落整体省略；指向空串则渲染一个空段落
type ReplyContext struct {
	ConversationDigest *string
	ReportsDigest      *string
	RiskProfile        *string
	Fundamentals       *string
	PriceChartNote     *string
	RadarChartNote     *string
}

// Opt 返回 s 的指针，用于填充 ReplyContext
func Opt(s string) *string {
	return &s
}

// ReplyAgent 面向用户的回复 Agent
type ReplyAgent struct {
	completer Completer
	prompts   prompts.Reply
}

// NewReplyAgent 创建回复 Agent
func NewReplyAgent(c Completer, p prompts.Reply) *ReplyAgent {
	return &ReplyAgent{completer: c, prompts: p}
}

// Reply 生成下一条回复
func (a *ReplyAgent) Reply(ctx context.Context, userText string, rc ReplyContext) (string, error) {
	out, err := a.completer.Complete(ctx, a.BuildPrompt(userText, rc))
	if err != nil {
		return "", err
	}
	return CleanReply(out), nil
}

// BuildPrompt 拼接人设指令、可选上下文块和用户输入
func (a *ReplyAgent) BuildPrompt(userText string, rc ReplyContext) string {
	p := a.prompts
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(p.Mandate, "\n"))

	if rc.ConversationDigest != nil {
		sb.WriteString("\n" + p.Conversation + "\n" + *rc.ConversationDigest)
	}
	if rc.ReportsDigest != nil {
		sb.WriteString("\n" + p.Reports + "\n" + *rc.ReportsDigest)
	}
	if rc.RiskProfile != nil {
		sb.WriteString("\n" + p.RiskProfile + "\n" + *rc.RiskProfile + "\n" + p.UseHint)
	}
	if rc.Fundamentals != nil {
		sb.WriteString("\n" + p.Fundamentals + "\n" + *rc.Fundamentals + "\n" + p.UseHint)
	}
	if rc.PriceChartNote != nil {
		sb.WriteString("\n" + p.PriceChart + " " + *rc.PriceChartNote + ".")
	}
	if rc.RadarChartNote != nil {
		sb.WriteString("\n" + p.RadarChart + " " + *rc.RadarChartNote + ".")
	}

	sb.WriteString("\n" + p.Client + " " + userText + "\n\n" + p.Speaker)
	return sb.String()
}

// CleanReply 连续换行统一为一个空行，并去掉首尾空白
func CleanReply(s string) string {
	return strings.TrimSpace(newlineRuns.ReplaceAllString(s, "\n\n"))
}
