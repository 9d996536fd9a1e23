package models

// AIProvider 模型服务提供方
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderGemini AIProvider = "gemini"
)

// AIConfig 单个模型的连接配置
type AIConfig struct {
	Provider     AIProvider `json:"provider"`
	ModelName    string     `json:"modelName"`
	APIKey       string     `json:"apiKey"`
	BaseURL      string     `json:"baseUrl"`
	NoSystemRole bool       `json:"noSystemRole"` // 不支持 system role，需降级处理
}

// AgentRole 流水线中的 Agent 角色
type AgentRole string

const (
	AgentClassifier AgentRole = "classifier"
	AgentReply      AgentRole = "reply"
	AgentRisk       AgentRole = "risk"
	AgentSummarizer AgentRole = "summarizer"
)

// AllAgentRoles 全部 Agent 角色
var AllAgentRoles = []AgentRole{AgentClassifier, AgentReply, AgentRisk, AgentSummarizer}
