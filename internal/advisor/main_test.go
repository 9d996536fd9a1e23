package advisor

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/intent"
	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/prompts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCompleter 按调用顺序返回预设文本，最后一条重复使用
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	respond func(prompt string) string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.respond != nil {
		return f.respond(prompt), nil
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	return f.replies[min(len(f.prompts), len(f.replies))-1], nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeCompleter) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// summarizerReplies 按指令区分会话摘要、研报摘要和报告摘要
func summarizerReplies(prompt string) string {
	set := prompts.MustDefault().Summarizer
	switch {
	case strings.Contains(prompt, set.Conversation):
		return "conversation digest"
	case strings.Contains(prompt, set.Report):
		return "research summary"
	case strings.Contains(prompt, set.Reports):
		return "reports digest"
	}
	return "digest"
}

type fakeResearch struct {
	report *models.ResearchReport
	err    error
	calls  int
}

func (f *fakeResearch) Produce(context.Context) (*models.ResearchReport, error) {
	f.calls++
	return f.report, f.err
}

type fundamentalsCall struct {
	ticker    string
	requested []string
}

type fakeFundamentals struct {
	text  string
	err   error
	calls []fundamentalsCall
}

func (f *fakeFundamentals) FundamentalsReport(_ context.Context, ticker string, requested []string) (string, error) {
	f.calls = append(f.calls, fundamentalsCall{ticker, requested})
	return f.text, f.err
}

type fakeCharts struct {
	series  models.PriceSeries
	compare []models.PriceSeries
	matrix  models.MetricMatrix
	warning string
	err     error
	calls   int
}

func (f *fakeCharts) PriceSeries(_ context.Context, ticker, period string) (models.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return models.PriceSeries{}, f.err
	}
	s := f.series
	s.Symbol, s.Period = ticker, period
	return s, nil
}

func (f *fakeCharts) ComparePriceSeries(context.Context, []string, string) ([]models.PriceSeries, error) {
	f.calls++
	return f.compare, f.err
}

func (f *fakeCharts) MetricMatrix(context.Context, []string, []string) (models.MetricMatrix, string, error) {
	f.calls++
	return f.matrix, f.warning, f.err
}

type fakeTable struct {
	table *models.Table
	err   error
	calls []intent.Table
}

func (f *fakeTable) Query(q intent.Table) (*models.Table, error) {
	f.calls = append(f.calls, q)
	return f.table, f.err
}

// harness 一组假 Agent 与协作方
type harness struct {
	summarizer *fakeCompleter
	classifier *fakeCompleter
	reply      *fakeCompleter
	risk       *fakeCompleter

	research     *fakeResearch
	fundamentals *fakeFundamentals
	charts       *fakeCharts
	table        *fakeTable

	svc  *Service
	sess *SessionState
}

func newHarness(t *testing.T, classifierReplies ...string) *harness {
	t.Helper()
	h := &harness{
		summarizer: &fakeCompleter{respond: summarizerReplies},
		classifier: &fakeCompleter{replies: classifierReplies},
		reply:      &fakeCompleter{replies: []string{"Happy to help.\n\n\n\nAnything else?  "}},
		risk:       &fakeCompleter{replies: []string{"{}"}},

		research: &fakeResearch{report: &models.ResearchReport{Companies: []models.CompanyResearch{{
			Company: models.Company{Name: "Apple", Ticker: "NASDAQ:AAPL", FScore: 9},
			Fields:  []models.KV{{Key: "f_score", Value: "9"}, {Key: "trailing_pe", Value: "29.6"}},
		}}}},
		fundamentals: &fakeFundamentals{text: "**Apple Inc. (AAPL)**\n- **PE Ratio (TTM):** 29.62"},
		charts:       &fakeCharts{},
		table:        &fakeTable{table: &models.Table{Columns: []string{"name"}, Rows: [][]string{{"Nvidia"}}}},
	}

	container, err := agent.NewContainer(prompts.MustDefault(), map[models.AgentRole]agent.Completer{
		models.AgentSummarizer: h.summarizer,
		models.AgentClassifier: h.classifier,
		models.AgentReply:      h.reply,
		models.AgentRisk:       h.risk,
	})
	require.NoError(t, err)

	h.svc = NewService(container, Collaborators{
		Research:     h.research,
		Fundamentals: h.fundamentals,
		Charts:       h.charts,
		Table:        h.table,
	}, models.DefaultMemorySettings())
	h.sess = NewSession()
	return h
}

func (h *harness) roles() []models.Role {
	var out []models.Role
	for _, turn := range h.sess.History() {
		out = append(out, turn.Role)
	}
	return out
}

func (h *harness) assistantTurns() int {
	n := 0
	for _, turn := range h.sess.History() {
		if turn.Role == models.RoleAssistant {
			n++
		}
	}
	return n
}
