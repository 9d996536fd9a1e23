// Package intent 把分类 Agent 输出的字典解码为封闭的意图类型集合
//
// 解码顺序即分派优先级：investment_advice → fundamentals → price_chart →
// compare_price_chart → radar_chart → pe_div_yield_table。
// 识别到 key 但参数不合法时仍返回对应类型，由 Validate 报告问题，
// 调用方据此决定中止还是降级为普通对话。
package intent

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind 意图类别
type Kind string

const (
	KindUnclassified      Kind = "unclassified"
	KindAdvice            Kind = "investment_advice"
	KindFundamentals      Kind = "fundamentals"
	KindPriceChart        Kind = "price_chart"
	KindComparePriceChart Kind = "compare_price_chart"
	KindRadarChart        Kind = "radar_chart"
	KindTable             Kind = "pe_div_yield_table"
)

const fundamentalsTypeKey = "fundamentals_type"

// DefaultPeriod 未指定周期时使用的默认值
const DefaultPeriod = "1mo"

// KnownPeriods 行情接口支持的周期
var KnownPeriods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "5y", "max"}

// 表格筛选默认值
var DefaultTableFields = []string{"pe_ratio", "dividen_yield"}

const (
	DefaultTableSortBy = "market_cap_usd"
	DefaultTableOrder  = "desc"
)

var (
	ErrNoTickers = errors.New("no ticker provided")
	ErrNoMetrics = errors.New("no metrics provided")
	ErrMalformed = errors.New("malformed parameters")
)

// Intent 意图，只能是本包定义的类型之一
type Intent interface {
	Kind() Kind
	// Validate 检查参数是否满足执行条件
	Validate() error
	sealed()
}

// AdviceMode investment_advice 的取值
type AdviceMode string

const (
	AdviceRequested AdviceMode = "Y" // 请求投资建议
	AdviceRisk      AdviceMode = "R" // 回答风险画像问题
	AdviceChat      AdviceMode = "N" // 普通对话
)

// Advice investment_advice 意图
type Advice struct {
	Mode AdviceMode
}

// Fundamentals 基本面查询，只使用第一个 ticker
type Fundamentals struct {
	Tickers []string
	Metrics []string // fundamentals_type 拆分后的指标名，空表示全部
}

// Ticker 第一个 ticker
func (f Fundamentals) Ticker() string {
	if len(f.Tickers) == 0 {
		return ""
	}
	return f.Tickers[0]
}

// PriceChart 单只股票价格走势
type PriceChart struct {
	Ticker string
	Period string
}

// ComparePriceChart 多只股票价格对比
type ComparePriceChart struct {
	Tickers []string
	Period  string
}

// RadarChart 多指标雷达图
type RadarChart struct {
	Metrics   []string
	Tickers   []string
	malformed bool
}

// Table PE / 股息率表格筛选
type Table struct {
	Fields []string
	Theme  string
	SortBy string
	Order  string
	Limit  int
}

// Unclassified 未识别，按普通对话处理
type Unclassified struct{}

func (Advice) Kind() Kind            { return KindAdvice }
func (Fundamentals) Kind() Kind      { return KindFundamentals }
func (PriceChart) Kind() Kind        { return KindPriceChart }
func (ComparePriceChart) Kind() Kind { return KindComparePriceChart }
func (RadarChart) Kind() Kind        { return KindRadarChart }
func (Table) Kind() Kind             { return KindTable }
func (Unclassified) Kind() Kind      { return KindUnclassified }

func (Advice) sealed()            {}
func (Fundamentals) sealed()      {}
func (PriceChart) sealed()        {}
func (ComparePriceChart) sealed() {}
func (RadarChart) sealed()        {}
func (Table) sealed()             {}
func (Unclassified) sealed()      {}

func (a Advice) Validate() error {
	switch a.Mode {
	case AdviceRequested, AdviceRisk, AdviceChat:
		return nil
	}
	return fmt.Errorf("%w: investment_advice %q", ErrMalformed, a.Mode)
}

func (f Fundamentals) Validate() error {
	if f.Ticker() == "" {
		return ErrNoTickers
	}
	return nil
}

func (p PriceChart) Validate() error {
	if p.Ticker == "" {
		return ErrNoTickers
	}
	return nil
}

func (c ComparePriceChart) Validate() error {
	if len(c.Tickers) == 0 {
		return ErrNoTickers
	}
	return nil
}

func (r RadarChart) Validate() error {
	if r.malformed {
		return fmt.Errorf("%w: radar_chart expects [[metrics...], tickers...]", ErrMalformed)
	}
	if len(r.Metrics) == 0 {
		return ErrNoMetrics
	}
	if len(r.Tickers) == 0 {
		return ErrNoTickers
	}
	return nil
}

func (Table) Validate() error        { return nil }
func (Unclassified) Validate() error { return nil }

// Decode 按优先级把字典解码为意图，无法识别时返回 Unclassified
func Decode(m map[string]any) Intent {
	if len(m) == 0 {
		return Unclassified{}
	}

	if raw, ok := m[string(KindAdvice)]; ok {
		modes := stringList(raw)
		for _, mode := range []AdviceMode{AdviceRequested, AdviceRisk, AdviceChat} {
			if slices.Contains(modes, string(mode)) {
				return Advice{Mode: mode}
			}
		}
	}

	if raw, ok := m[string(KindFundamentals)]; ok {
		return decodeFundamentals(raw, m[fundamentalsTypeKey])
	}
	if raw, ok := m[string(KindPriceChart)]; ok {
		return decodePriceChart(raw)
	}
	if raw, ok := m[string(KindComparePriceChart)]; ok {
		return decodeCompare(raw)
	}
	if raw, ok := m[string(KindRadarChart)]; ok {
		return decodeRadar(raw)
	}
	if raw, ok := m[string(KindTable)]; ok {
		if t, ok := decodeTable(raw); ok {
			return t
		}
	}
	return Unclassified{}
}

// DecodeTable 只读取 pe_div_yield_table，用于二次分类
func DecodeTable(m map[string]any) (Table, bool) {
	raw, ok := m[string(KindTable)]
	if !ok {
		return Table{}, false
	}
	return decodeTable(raw)
}

// IsKnownPeriod 是否为支持的周期
func IsKnownPeriod(p string) bool {
	return slices.Contains(KnownPeriods, p)
}

func decodeFundamentals(raw, types any) Fundamentals {
	f := Fundamentals{Tickers: tickerList(raw)}
	if s, ok := types.(string); ok {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Metrics = append(f.Metrics, part)
			}
		}
	} else {
		f.Metrics = stringList(types)
	}
	return f
}

func decodePriceChart(raw any) PriceChart {
	params := stringList(raw)
	p := PriceChart{Period: DefaultPeriod}
	if len(params) > 0 {
		p.Ticker = normalizeTicker(params[0])
	}
	if len(params) > 1 && IsKnownPeriod(params[1]) {
		p.Period = params[1]
	}
	return p
}

func decodeCompare(raw any) ComparePriceChart {
	params := stringList(raw)
	c := ComparePriceChart{Period: DefaultPeriod}
	if n := len(params); n > 0 && IsKnownPeriod(params[n-1]) {
		c.Period = params[n-1]
		params = params[:n-1]
	}
	for _, p := range params {
		if t := normalizeTicker(p); t != "" {
			c.Tickers = append(c.Tickers, t)
		}
	}
	return c
}

func decodeRadar(raw any) RadarChart {
	items, ok := raw.([]any)
	if !ok || len(items) < 2 {
		return RadarChart{malformed: true}
	}
	metricsRaw, ok := items[0].([]any)
	if !ok {
		return RadarChart{malformed: true}
	}
	r := RadarChart{Metrics: stringList(metricsRaw)}
	for _, item := range items[1:] {
		s, ok := item.(string)
		if !ok {
			return RadarChart{malformed: true}
		}
		if t := normalizeTicker(s); t != "" {
			r.Tickers = append(r.Tickers, t)
		}
	}
	return r
}

func decodeTable(raw any) (Table, bool) {
	params, ok := raw.(map[string]any)
	if !ok {
		return Table{}, false
	}
	t := Table{
		Fields: stringList(params["fields"]),
		SortBy: DefaultTableSortBy,
		Order:  DefaultTableOrder,
	}
	if len(t.Fields) == 0 {
		t.Fields = append([]string(nil), DefaultTableFields...)
	}
	if s, ok := params["theme"].(string); ok {
		t.Theme = strings.TrimSpace(s)
	}
	if s, ok := params["sort_by"].(string); ok && strings.TrimSpace(s) != "" {
		t.SortBy = strings.TrimSpace(s)
	}
	if s, ok := params["order"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "asc", "ascending":
			t.Order = "asc"
		}
	}
	t.Limit = intValue(params["limit"])
	return t, true
}

// stringList 把列表或单个字符串转为去空白的字符串列表，非字符串元素被忽略
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

func tickerList(v any) []string {
	var out []string
	for _, s := range stringList(v) {
		if t := normalizeTicker(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func intValue(v any) int {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return int(t)
		}
	case int:
		if t > 0 {
			return t
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
