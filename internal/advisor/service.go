// Package advisor 会话编排：摘要、意图分类、按意图分派到协作方并生成回复
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/intent"
	"github.com/run-bigpig/ava/internal/logger"
	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/parser"
	"github.com/run-bigpig/ava/internal/services"
)

var log = logger.New("Advisor")

var (
	ErrSessionBusy  = errors.New("session is processing another message")
	ErrEmptyMessage = errors.New("empty message")
	// ErrEmptyTickers fundamentals 没有 ticker，本轮中止且不生成回复
	ErrEmptyTickers = errors.New("no stock ticker provided in 'fundamentals'")
)

// Service 编排服务，多个会话共享，会话状态由 SessionState 持有
type Service struct {
	agents *agent.Container
	collab Collaborators

	mu       sync.RWMutex
	settings models.MemorySettings
}

// NewService 创建编排服务
func NewService(agents *agent.Container, collab Collaborators, settings models.MemorySettings) *Service {
	return &Service{agents: agents, collab: collab, settings: settings}
}

// SetMemorySettings 更新摘要窗口等设置，下一轮分派生效
func (s *Service) SetMemorySettings(settings models.MemorySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// MemorySettings 当前设置
func (s *Service) MemorySettings() models.MemorySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Dispatch 处理一条用户消息
// 正常结束时恰好追加一条 assistant 消息；fundamentals 缺少 ticker 时返回 ErrEmptyTickers 且不回复；
// 模型调用失败时返回 agent.ErrModelCall，不追加 assistant 消息
func (s *Service) Dispatch(ctx context.Context, sess *SessionState, message string) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{Branch: BranchNone}, ErrEmptyMessage
	}
	if !sess.acquire() {
		return Result{Branch: BranchNone}, ErrSessionBusy
	}
	defer sess.release()

	start := time.Now()
	c := &cycle{
		svc:      s,
		sess:     sess,
		message:  message,
		settings: s.MemorySettings(),
		summ:     s.agents.Summarizer(),
		result:   Result{Branch: BranchNone},
	}
	err := c.run(ctx)

	status := "ok"
	switch {
	case errors.Is(err, ErrEmptyTickers):
		status = "aborted"
	case err != nil:
		status = "error"
	case c.result.Fallback:
		status = "fallback"
	}
	metrics.RecordDispatch(string(c.result.Branch), status, time.Since(start))

	if err != nil {
		log.Warn("session %s: dispatch %s failed: %v", sess.ID, c.result.Branch, err)
		return c.result, err
	}
	log.Info("session %s: dispatch %s done in %v", sess.ID, c.result.Branch, time.Since(start))
	return c.result, nil
}

// cycle 一轮分派的临时状态，摘要只在本轮内有效
type cycle struct {
	svc      *Service
	sess     *SessionState
	message  string
	settings models.MemorySettings
	summ     *agent.Summarizer

	conversationDigest string
	reportsDigest      *string
	reportsDone        bool

	result Result
}

func (c *cycle) run(ctx context.Context) error {
	c.sess.appendTurn(models.RoleUser, c.message)

	digest, err := c.summ.SummarizeConversation(ctx, c.sess.History(), c.settings.NumMessages)
	if err != nil {
		return fmt.Errorf("summarize conversation: %w", err)
	}
	c.conversationDigest = digest

	classifier := c.svc.agents.Classifier()
	raw, err := classifier.Evaluate(ctx, c.message, digest)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	c.sess.appendTurn(models.RoleClassifier, raw)

	parsed := parser.Parse(raw)
	if len(parsed) == 0 {
		log.Warn("session %s: classifier output not parseable, treating as unclassified", c.sess.ID)
	}
	in := intent.Decode(parsed)
	log.Debug("session %s: intent %s", c.sess.ID, in.Kind())

	switch in := in.(type) {
	case intent.Advice:
		switch in.Mode {
		case intent.AdviceRequested:
			return c.research(ctx)
		case intent.AdviceRisk:
			return c.riskProfile(ctx)
		default:
			c.result.Branch = BranchChat
			return c.reply(ctx, agent.ReplyContext{})
		}
	case intent.Fundamentals:
		return c.fundamentals(ctx, in)
	case intent.PriceChart:
		return c.priceChart(ctx, in)
	case intent.ComparePriceChart:
		return c.compareChart(ctx, in)
	case intent.RadarChart:
		return c.radarChart(ctx, in)
	case intent.Table:
		return c.table(ctx, in)
	default:
		return c.unclassified(ctx)
	}
}

// research 生成研报，压缩后追加到报告历史
func (c *cycle) research(ctx context.Context) error {
	c.result.Branch = BranchResearch
	report, err := c.svc.collab.Research.Produce(ctx)
	if err != nil {
		return c.fallback(ctx, NoticeError, fmt.Sprintf("Failed to generate research report: %v", err))
	}
	text := services.RenderResearch(report)
	c.result.Report = text

	summary, err := c.summ.SummarizeReport(ctx, text)
	if err != nil {
		return fmt.Errorf("summarize research report: %w", err)
	}
	c.sess.appendReport(summary)
	return c.reply(ctx, agent.ReplyContext{})
}

// riskProfile 生成风险画像，原文同时进入会话历史和报告历史
func (c *cycle) riskProfile(ctx context.Context) error {
	c.result.Branch = BranchRiskProfile
	raw, err := c.svc.agents.Risk().Assess(ctx, c.sess.History())
	if err != nil {
		return fmt.Errorf("assess risk profile: %w", err)
	}

	profile := models.RiskProfile{Raw: raw}
	if record, ok := parser.ParseRiskProfile(raw); ok {
		profile.Parsed = record
		if !record.Complete() {
			log.Warn("session %s: risk profile missing keys: %v", c.sess.ID, record)
		}
	} else {
		log.Warn("session %s: risk profile is not valid JSON, keeping raw text", c.sess.ID)
	}
	c.sess.setRiskProfile(profile)
	c.result.Risk = &profile
	c.result.Report = raw

	c.sess.appendTurn(models.RoleRisk, raw)
	c.sess.appendReport(raw)
	return c.reply(ctx, agent.ReplyContext{RiskProfile: agent.Opt(raw)})
}

func (c *cycle) fundamentals(ctx context.Context, in intent.Fundamentals) error {
	c.result.Branch = BranchFundamentals
	if err := in.Validate(); err != nil {
		c.notice(NoticeWarning, "No stock ticker provided in 'fundamentals'.")
		return ErrEmptyTickers
	}

	ticker := in.Ticker()
	text, err := c.svc.collab.Fundamentals.FundamentalsReport(ctx, ticker, in.Metrics)
	if err != nil {
		return c.fallback(ctx, NoticeError, fmt.Sprintf("Failed to fetch fundamentals for %s: %v", ticker, err))
	}
	c.result.Report = text

	c.sess.appendTurn(models.RoleReport, text)
	c.sess.appendReport(text)
	return c.reply(ctx, agent.ReplyContext{Fundamentals: agent.Opt(text)})
}

func (c *cycle) priceChart(ctx context.Context, in intent.PriceChart) error {
	c.result.Branch = BranchPriceChart
	if err := in.Validate(); err != nil {
		return c.fallback(ctx, NoticeWarning, "No stock ticker provided in 'price_chart'.")
	}

	series, err := c.svc.collab.Charts.PriceSeries(ctx, in.Ticker, in.Period)
	if err != nil {
		return c.fallback(ctx, NoticeError, err.Error())
	}
	latest, ok := series.Latest()
	if !ok {
		return c.fallback(ctx, NoticeError, fmt.Sprintf("no data found for %s over the period %s", in.Ticker, in.Period))
	}

	c.result.Chart = &models.Chart{
		Kind:   models.ChartPrice,
		Title:  fmt.Sprintf("Price Chart for %s over %s: Latest Price - $%.2f", in.Ticker, in.Period, latest),
		Series: []models.PriceSeries{series},
	}
	note := fmt.Sprintf("%s over %s, Latest Price: $%.2f", in.Ticker, in.Period, latest)
	return c.reply(ctx, agent.ReplyContext{PriceChartNote: agent.Opt(note)})
}

func (c *cycle) compareChart(ctx context.Context, in intent.ComparePriceChart) error {
	c.result.Branch = BranchCompareChart
	if err := in.Validate(); err != nil {
		return c.fallback(ctx, NoticeWarning, "No stock tickers provided in 'compare_price_chart'.")
	}

	series, err := c.svc.collab.Charts.ComparePriceSeries(ctx, in.Tickers, in.Period)
	if err != nil {
		return c.fallback(ctx, NoticeError, err.Error())
	}

	tickers := strings.Join(in.Tickers, ", ")
	c.result.Chart = &models.Chart{
		Kind:   models.ChartCompare,
		Title:  fmt.Sprintf("Comparison of %s over %s", tickers, in.Period),
		Series: series,
	}
	note := fmt.Sprintf("Comparison of %s over %s", tickers, in.Period)
	return c.reply(ctx, agent.ReplyContext{PriceChartNote: agent.Opt(note)})
}

func (c *cycle) radarChart(ctx context.Context, in intent.RadarChart) error {
	c.result.Branch = BranchRadarChart
	if err := in.Validate(); err != nil {
		return c.fallback(ctx, NoticeWarning, fmt.Sprintf("Invalid radar chart request: %v", err))
	}

	matrix, warning, err := c.svc.collab.Charts.MetricMatrix(ctx, in.Tickers, in.Metrics)
	if err != nil {
		return c.fallback(ctx, NoticeError, err.Error())
	}
	if warning != "" {
		c.notice(NoticeWarning, warning)
	}

	metricsText := strings.Join(in.Metrics, ", ")
	tickers := strings.Join(services.MatrixTickers(matrix, in.Tickers), ", ")
	c.result.Chart = &models.Chart{
		Kind:    models.ChartRadar,
		Title:   fmt.Sprintf("Radar Chart for metrics %s across %s", metricsText, tickers),
		Metrics: in.Metrics,
		Matrix:  matrix,
	}
	note := fmt.Sprintf("Radar chart for metrics %s on %s", metricsText, tickers)
	return c.reply(ctx, agent.ReplyContext{RadarChartNote: agent.Opt(note)})
}

// table 表格筛选结果只用于展示，回复时不附带表格内容
func (c *cycle) table(ctx context.Context, in intent.Table) error {
	c.result.Branch = BranchTable
	table, err := c.svc.collab.Table.Query(in)
	switch {
	case errors.Is(err, services.ErrNoThemeMatch):
		return c.fallback(ctx, NoticeWarning, fmt.Sprintf("No results found for theme '%s'. Please try a different theme.", in.Theme))
	case errors.Is(err, services.ErrTableNotFound):
		c.notice(NoticeError, "pe_div_yield_table.csv not found.")
	case err != nil:
		return c.fallback(ctx, NoticeError, err.Error())
	default:
		c.result.Table = table
	}
	return c.reply(ctx, agent.ReplyContext{})
}

// unclassified 未识别意图时可再分类一次，只看是否请求表格筛选
func (c *cycle) unclassified(ctx context.Context) error {
	c.result.Branch = BranchChat
	if !c.settings.SecondaryTablePass {
		return c.reply(ctx, agent.ReplyContext{})
	}

	raw, err := c.svc.agents.Classifier().Evaluate(ctx, c.message, c.conversationDigest)
	if err != nil {
		return fmt.Errorf("classify table request: %w", err)
	}
	if t, ok := intent.DecodeTable(parser.Parse(raw)); ok {
		return c.table(ctx, t)
	}
	return c.reply(ctx, agent.ReplyContext{})
}

// fallback 记录提示后降级为只带摘要的普通回复
func (c *cycle) fallback(ctx context.Context, level NoticeLevel, text string) error {
	c.notice(level, text)
	c.result.Fallback = true
	return c.reply(ctx, agent.ReplyContext{})
}

func (c *cycle) notice(level NoticeLevel, text string) {
	c.result.Notices = append(c.result.Notices, Notice{Level: level, Text: text})
}

// reportDigest 报告历史为空时返回 nil；本轮只计算一次，调用时报告已全部追加
func (c *cycle) reportDigest(ctx context.Context) (*string, error) {
	if c.reportsDone {
		return c.reportsDigest, nil
	}
	c.reportsDone = true
	if !c.sess.hasReports() {
		return nil, nil
	}
	digest, err := c.summ.SummarizeReports(ctx, c.sess.Reports(), c.settings.NumReports)
	if err != nil {
		return nil, fmt.Errorf("summarize reports: %w", err)
	}
	c.reportsDigest = &digest
	return c.reportsDigest, nil
}

// reply 生成回复并追加唯一一条 assistant 消息
func (c *cycle) reply(ctx context.Context, rc agent.ReplyContext) error {
	reports, err := c.reportDigest(ctx)
	if err != nil {
		return err
	}
	rc.ConversationDigest = agent.Opt(c.conversationDigest)
	rc.ReportsDigest = reports

	text, err := c.svc.agents.Reply().Reply(ctx, c.message, rc)
	if err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	c.sess.appendTurn(models.RoleAssistant, text)
	c.result.Reply = text
	return nil
}
