package models

// MemorySettings 会话记忆配置
type MemorySettings struct {
	NumMessages        int  `json:"numMessages"`        // 会话摘要窗口，按 user+assistant 成对计数
	NumReports         int  `json:"numReports"`         // 报告摘要窗口
	SecondaryTablePass bool `json:"secondaryTablePass"` // 未识别意图时是否二次分类以匹配表格筛选
}

// DefaultMemorySettings 默认记忆配置
func DefaultMemorySettings() MemorySettings {
	return MemorySettings{
		NumMessages:        3,
		NumReports:         3,
		SecondaryTablePass: true,
	}
}
