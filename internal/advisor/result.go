package advisor

import "github.com/run-bigpig/ava/internal/models"

// Branch 本轮分派走的分支
type Branch string

const (
	BranchNone         Branch = "none"
	BranchResearch     Branch = "research"
	BranchRiskProfile  Branch = "risk_profile"
	BranchChat         Branch = "chat"
	BranchFundamentals Branch = "fundamentals"
	BranchPriceChart   Branch = "price_chart"
	BranchCompareChart Branch = "compare_price_chart"
	BranchRadarChart   Branch = "radar_chart"
	BranchTable        Branch = "pe_div_yield_table"
)

// NoticeLevel 提示级别
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice 需要展示给用户的警告或错误
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// Result 一次分派的输出
type Result struct {
	Reply    string              `json:"reply"`
	Branch   Branch              `json:"branch"`
	Fallback bool                `json:"fallback,omitempty"` // 分支失败后降级为普通对话
	Notices  []Notice            `json:"notices,omitempty"`
	Report   string              `json:"report,omitempty"` // 本轮生成的报告原文
	Table    *models.Table       `json:"table,omitempty"`
	Chart    *models.Chart       `json:"chart,omitempty"`
	Risk     *models.RiskProfile `json:"risk,omitempty"`
}
