package main

import (
	"context"
	"fmt"

	"github.com/run-bigpig/ava/internal/adk"
	"github.com/run-bigpig/ava/internal/advisor"
	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/config"
	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/pkg/paths"
	"github.com/run-bigpig/ava/internal/prompts"
	"github.com/run-bigpig/ava/internal/services"
)

// app 进程内共享的组件
type app struct {
	dataDir string
	agents  *agent.Container
	advisor *advisor.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	metrics.Init()

	set, err := prompts.Load(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}
	themes, err := prompts.Themes()
	if err != nil {
		return nil, err
	}

	agents, err := agent.BuildContainer(ctx, adk.NewModelFactory(), cfg.Model.AIConfigFor, callPolicy(cfg.Call), set)
	if err != nil {
		return nil, fmt.Errorf("build agents: %w", err)
	}

	dataDir := paths.GetDataDir(cfg.Data.Dir)
	cacheDir, err := paths.EnsureDir(paths.GetCacheDir(dataDir))
	if err != nil {
		log.Warn("cache disabled: %v", err)
		cacheDir = ""
	}
	market, err := services.NewMarketService(services.MarketConfig{
		QuotePageURL: cfg.Data.QuotePageURL,
		ChartAPIURL:  cfg.Data.ChartAPIURL,
		HTTPTimeout:  cfg.Data.HTTPTimeout,
		CacheDir:     cacheDir,
		CacheTTL:     cfg.Data.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create market service: %w", err)
	}
	research := services.NewResearchService(market, paths.Resolve(dataDir, cfg.Data.CompaniesCSV), cfg.Data.ResearchMinScore)
	table := services.NewTableService(paths.Resolve(dataDir, cfg.Data.PETableCSV), themes)

	settings := models.MemorySettings{
		NumMessages:        cfg.Memory.NumMessages,
		NumReports:         cfg.Memory.NumReports,
		SecondaryTablePass: cfg.Memory.SecondaryTablePass,
	}
	log.Info("data dir %s, memory window %d messages / %d reports", dataDir, settings.NumMessages, settings.NumReports)

	return &app{
		dataDir: dataDir,
		agents:  agents,
		advisor: advisor.NewService(agents, advisor.NewCollaborators(market, research, table), settings),
	}, nil
}

// watchPrompts 覆盖文件变更时热更新模板
func (a *app) watchPrompts(ctx context.Context, path string) {
	if path == "" {
		return
	}
	go func() {
		if err := prompts.Watch(ctx, path, a.agents.SetPrompts); err != nil {
			log.Warn("prompts hot reload disabled: %v", err)
		}
	}()
}

// callPolicy 未配置的字段使用默认策略
func callPolicy(c config.CallConfig) agent.CallPolicy {
	policy := agent.DefaultCallPolicy()
	if c.Timeout > 0 {
		policy.Timeout = c.Timeout
	}
	if c.RetryDelay > 0 {
		policy.RetryDelay = c.RetryDelay
	}
	policy.MaxRetries = c.MaxRetries
	policy.RatePerMinute = c.RatePerMinute
	return policy
}
