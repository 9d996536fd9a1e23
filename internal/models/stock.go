package models

import "time"

// Fundamentals 个股基本面数据
// Metrics 的 key 采用行情源字段名，如 trailingPE、dividendYield
type Fundamentals struct {
	Symbol   string             `json:"symbol"`
	LongName string             `json:"longName"`
	Metrics  map[string]float64 `json:"metrics"`
	Profile  map[string]string  `json:"profile"` // sector/industry/website/longBusinessSummary
}

// PricePoint 收盘价数据点
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries 单只股票的价格序列
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Period string       `json:"period"`
	Points []PricePoint `json:"points"`
}

// Latest 最新收盘价
func (s PriceSeries) Latest() (float64, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	return s.Points[len(s.Points)-1].Close, true
}

// MetricMatrix 雷达图数据：ticker -> metric -> value，nil 表示缺失
type MetricMatrix map[string]map[string]*float64

// Company 研报候选公司
type Company struct {
	Name   string  `json:"name"`
	Ticker string  `json:"ticker"`
	FScore float64 `json:"fScore"`
}

// CompanyResearch 研报中单个公司的指标
type CompanyResearch struct {
	Company Company `json:"company"`
	Fields  []KV    `json:"fields"`
}

// KV 有序键值对
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ResearchReport 研报（按公司顺序）
type ResearchReport struct {
	Companies []CompanyResearch `json:"companies"`
}

// Table 表格筛选结果，单元格为格式化后的文本
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ChartKind 图表类型
type ChartKind string

const (
	ChartPrice   ChartKind = "price"
	ChartCompare ChartKind = "compare"
	ChartRadar   ChartKind = "radar"
)

// Chart 交给展示层渲染的图表数据
type Chart struct {
	Kind    ChartKind     `json:"kind"`
	Title   string        `json:"title"`
	Series  []PriceSeries `json:"series,omitempty"`
	Metrics []string      `json:"metrics,omitempty"`
	Matrix  MetricMatrix  `json:"matrix,omitempty"`
}
