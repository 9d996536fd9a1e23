package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/run-bigpig/ava/internal/models"
)

// 记忆窗口取值范围（与设置面板一致）
const (
	MinWindow = 1
	MaxWindow = 10
)

// Config 应用配置
type Config struct {
	App     AppConfig
	Memory  MemoryConfig
	Model   ModelConfig
	Call    CallConfig
	Data    DataConfig
	Prompts PromptsConfig
	Metrics MetricsConfig
	Server  ServerConfig
}

type AppConfig struct {
	Env      string `envconfig:"AVA_ENV" default:"development"`
	LogLevel string `envconfig:"AVA_LOG_LEVEL" default:"info"`
}

// MemoryConfig 会话记忆配置
// NumMessages 按 user+assistant 成对计数
type MemoryConfig struct {
	NumMessages        int  `envconfig:"AVA_NUM_MESSAGES" default:"3"`
	NumReports         int  `envconfig:"AVA_NUM_REPORTS" default:"3"`
	SecondaryTablePass bool `envconfig:"AVA_SECONDARY_TABLE_PASS" default:"true"`
}

// ModelConfig 默认模型及各 Agent 的覆盖配置
type ModelConfig struct {
	Provider string `envconfig:"AVA_MODEL_PROVIDER" default:"openai"`
	Name     string `envconfig:"AVA_MODEL_NAME" default:"gpt-4o"`
	APIKey   string `envconfig:"AVA_API_KEY"`
	BaseURL  string `envconfig:"AVA_BASE_URL"`
	NoSystem bool   `envconfig:"AVA_NO_SYSTEM_ROLE" default:"false"`

	ClassifierModel string `envconfig:"AVA_CLASSIFIER_MODEL"`
	ReplyModel      string `envconfig:"AVA_REPLY_MODEL"`
	RiskModel       string `envconfig:"AVA_RISK_MODEL"`
	SummarizerModel string `envconfig:"AVA_SUMMARIZER_MODEL"`
}

// CallConfig 单次模型调用的超时与重试
type CallConfig struct {
	Timeout       time.Duration `envconfig:"AVA_CALL_TIMEOUT" default:"60s"`
	MaxRetries    int           `envconfig:"AVA_CALL_MAX_RETRIES" default:"1"`
	RetryDelay    time.Duration `envconfig:"AVA_CALL_RETRY_DELAY" default:"2s"`
	RatePerMinute float64       `envconfig:"AVA_CALL_RATE_PER_MINUTE" default:"60"`
}

// DataConfig 行情数据协作方配置
type DataConfig struct {
	Dir              string        `envconfig:"AVA_DATA_DIR"`
	CompaniesCSV     string        `envconfig:"AVA_COMPANIES_CSV" default:"companies.csv"`
	PETableCSV       string        `envconfig:"AVA_PE_TABLE_CSV" default:"pe_div_yield_table.csv"`
	QuotePageURL     string        `envconfig:"AVA_QUOTE_PAGE_URL" default:"https://finance.yahoo.com/quote"`
	ChartAPIURL      string        `envconfig:"AVA_CHART_API_URL" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	HTTPTimeout      time.Duration `envconfig:"AVA_HTTP_TIMEOUT" default:"15s"`
	CacheTTL         time.Duration `envconfig:"AVA_CACHE_TTL" default:"5m"`
	ResearchMinScore float64       `envconfig:"AVA_RESEARCH_MIN_FSCORE" default:"8"`
}

type PromptsConfig struct {
	Path string `envconfig:"AVA_PROMPTS_PATH"`
}

type MetricsConfig struct {
	Addr string `envconfig:"AVA_METRICS_ADDR"`
}

// ServerConfig HTTP 多会话宿主（ava serve）
type ServerConfig struct {
	Addr          string        `envconfig:"AVA_SERVE_ADDR" default:":8080"`
	SessionIdle   time.Duration `envconfig:"AVA_SESSION_IDLE" default:"30m"`
	SweepInterval time.Duration `envconfig:"AVA_SESSION_SWEEP_INTERVAL" default:"1m"`
}

// Load 读取配置：先尝试加载 .env（本地开发），再读取环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	cfg.Memory.NumMessages = ClampWindow(cfg.Memory.NumMessages)
	cfg.Memory.NumReports = ClampWindow(cfg.Memory.NumReports)
	if cfg.Call.MaxRetries < 0 {
		cfg.Call.MaxRetries = 0
	}
	return &cfg, nil
}

// ClampWindow 将窗口大小限制在 [MinWindow, MaxWindow]
func ClampWindow(n int) int {
	if n < MinWindow {
		return MinWindow
	}
	if n > MaxWindow {
		return MaxWindow
	}
	return n
}

// AIConfigFor 返回指定 Agent 使用的模型配置，未覆盖时使用默认模型
func (c ModelConfig) AIConfigFor(role models.AgentRole) *models.AIConfig {
	name := c.Name
	var override string
	switch role {
	case models.AgentClassifier:
		override = c.ClassifierModel
	case models.AgentReply:
		override = c.ReplyModel
	case models.AgentRisk:
		override = c.RiskModel
	case models.AgentSummarizer:
		override = c.SummarizerModel
	}
	if override != "" {
		name = override
	}
	return &models.AIConfig{
		Provider:     models.AIProvider(c.Provider),
		ModelName:    name,
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		NoSystemRole: c.NoSystem,
	}
}
