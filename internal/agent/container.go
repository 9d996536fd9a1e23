package agent

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/adk/model"

	"github.com/run-bigpig/ava/internal/adk"
	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/prompts"
)

// ConfigResolver 返回指定角色使用的模型配置
type ConfigResolver func(role models.AgentRole) *models.AIConfig

// Container 按角色管理各 Agent 的 Completer
type Container struct {
	prompts    *prompts.Set
	completers map[models.AgentRole]Completer
	mu         sync.RWMutex
}

// NewContainer 创建容器，completers 需覆盖全部角色
func NewContainer(set *prompts.Set, completers map[models.AgentRole]Completer) (*Container, error) {
	c := &Container{
		prompts:    set,
		completers: make(map[models.AgentRole]Completer, len(completers)),
	}
	for _, role := range models.AllAgentRoles {
		comp, ok := completers[role]
		if !ok || comp == nil {
			return nil, fmt.Errorf("no completer for agent %s", role)
		}
		c.completers[role] = comp
	}
	return c, nil
}

// BuildContainer 通过模型工厂为每个角色创建模型
// 相同配置的角色共享同一个 model.LLM
func BuildContainer(ctx context.Context, factory *adk.ModelFactory, resolve ConfigResolver, policy CallPolicy, set *prompts.Set) (*Container, error) {
	llms := make(map[models.AIConfig]model.LLM)
	completers := make(map[models.AgentRole]Completer, len(models.AllAgentRoles))

	for _, role := range models.AllAgentRoles {
		cfg := resolve(role)
		if cfg == nil {
			return nil, fmt.Errorf("no model config for agent %s", role)
		}
		llm, ok := llms[*cfg]
		if !ok {
			var err error
			llm, err = factory.CreateModel(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("create model for agent %s: %w", role, err)
			}
			llms[*cfg] = llm
		}
		log.Info("agent %s -> %s/%s", role, cfg.Provider, cfg.ModelName)
		completers[role] = NewLLMCompleter(role, llm, policy)
	}
	return NewContainer(set, completers)
}

// Completer 获取指定角色的 Completer
func (c *Container) Completer(role models.AgentRole) Completer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.completers[role]
}

// SetPrompts 替换指令模板（模板文件热更新时使用）
func (c *Container) SetPrompts(set *prompts.Set) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = set
}

// Prompts 当前使用的指令模板
func (c *Container) Prompts() *prompts.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompts
}

// Summarizer 摘要 Agent
func (c *Container) Summarizer() *Summarizer {
	return NewSummarizer(c.Completer(models.AgentSummarizer), c.Prompts().Summarizer)
}

// Classifier 分类 Agent
func (c *Container) Classifier() *ClassifierAgent {
	return NewClassifierAgent(c.Completer(models.AgentClassifier), c.Prompts().Classifier)
}

// Reply 回复 Agent
func (c *Container) Reply() *ReplyAgent {
	return NewReplyAgent(c.Completer(models.AgentReply), c.Prompts().Reply)
}

// Risk 风险画像 Agent
func (c *Container) Risk() *RiskProfileAgent {
	return NewRiskProfileAgent(c.Completer(models.AgentRisk), c.Prompts().Risk)
}
