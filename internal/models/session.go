package models

// Role 会话消息角色
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleClassifier Role = "classifier"
	RoleRisk       Role = "risk"
	RoleReport     Role = "report"
)

// Turn 会话中的一条消息，追加后不可修改
type Turn struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// RiskProfileRecord 风险画像
// 值保持模型原样输出，不做 schema 约束
type RiskProfileRecord map[string]any

// 风险画像字段
const (
	RiskAbilityKey     = "risk_ability"
	RiskWillingnessKey = "risk_willingness"
	RiskAgeKey         = "age"
	RiskNAVKey         = "NAV"
)

// RiskProfileKeys 风险画像必须包含的字段
var RiskProfileKeys = []string{RiskAbilityKey, RiskWillingnessKey, RiskAgeKey, RiskNAVKey}

// Complete 是否包含全部字段
func (r RiskProfileRecord) Complete() bool {
	if len(r) == 0 {
		return false
	}
	for _, k := range RiskProfileKeys {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}

// RiskProfile 风险画像的原文与解析结果，两者可能不一致
type RiskProfile struct {
	Raw    string            `json:"raw"`
	Parsed RiskProfileRecord `json:"parsed,omitempty"`
}
