package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/run-bigpig/ava/internal/models"
)

// DefaultMinFScore 研报只保留 F-score 高于该值的公司
const DefaultMinFScore = 8

// FundamentalsSource 基本面数据来源
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
}

// 研报字段 -> 基本面指标
var researchMetricFields = []struct{ name, key string }{
	{"current_stock_price", "currentPrice"},
	{"high_ltm", "fiftyTwoWeekHigh"},
	{"low_ltm", "fiftyTwoWeekLow"},
	{"trailing_pe", "trailingPE"},
	{"forward_pe", "forwardPE"},
	{"volume", "volume"},
	{"market_cap", "marketCap"},
}

var researchProfileFields = []struct{ name, key string }{
	{"sector", "sector"},
	{"industry", "industry"},
	{"website", "website"},
}

// ResearchService 基于候选公司列表生成研报
type ResearchService struct {
	source    FundamentalsSource
	csvPath   string
	minFScore float64
}

// NewResearchService 创建研报服务
func NewResearchService(source FundamentalsSource, csvPath string, minFScore float64) *ResearchService {
	return &ResearchService{source: source, csvPath: csvPath, minFScore: minFScore}
}

// Produce 读取候选公司，过滤 F-score 并补充基本面
func (r *ResearchService) Produce(ctx context.Context) (*models.ResearchReport, error) {
	start := time.Now()
	report, err := r.produce(ctx)
	observe("research", start, err)
	return report, err
}

func (r *ResearchService) produce(ctx context.Context) (*models.ResearchReport, error) {
	companies, err := LoadCompanies(r.csvPath)
	if err != nil {
		return nil, err
	}

	var selected []models.Company
	for _, c := range companies {
		if c.FScore > r.minFScore {
			selected = append(selected, c)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no company with f_score above %g: %w", r.minFScore, ErrNoData)
	}

	report := &models.ResearchReport{Companies: make([]models.CompanyResearch, len(selected))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range selected {
		g.Go(func() error {
			report.Companies[i] = r.enrich(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// enrich 补充单个公司的指标，获取失败时指标记为 N/A
func (r *ResearchService) enrich(ctx context.Context, c models.Company) models.CompanyResearch {
	cr := models.CompanyResearch{
		Company: c,
		Fields:  []models.KV{{Key: "f_score", Value: strconv.FormatFloat(c.FScore, 'f', -1, 64)}},
	}

	f, err := r.source.Fundamentals(ctx, coreTicker(c.Ticker))
	if err != nil {
		log.Warn("research: fundamentals for %s unavailable: %v", c.Ticker, err)
		f = &models.Fundamentals{}
	}
	for _, field := range researchMetricFields {
		value := "N/A"
		if v, ok := f.Metrics[field.key]; ok {
			value = strconv.FormatFloat(v, 'f', -1, 64)
		}
		cr.Fields = append(cr.Fields, models.KV{Key: field.name, Value: value})
	}
	for _, field := range researchProfileFields {
		value := f.Profile[field.key]
		if value == "" {
			value = "N/A"
		}
		cr.Fields = append(cr.Fields, models.KV{Key: field.name, Value: value})
	}
	return cr
}

// RenderResearch 把研报渲染为文本，每个公司一段
func RenderResearch(report *models.ResearchReport) string {
	var sb strings.Builder
	for i, c := range report.Companies {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Company: %s\n", c.Company.Name)
		for _, kv := range c.Fields {
			fmt.Fprintf(&sb, "%s: %s\n", kv.Key, kv.Value)
		}
	}
	return sb.String()
}

// coreTicker 去掉交易所前缀，如 NASDAQ:AAPL -> AAPL
func coreTicker(t string) string {
	if i := strings.LastIndex(t, ":"); i >= 0 {
		t = t[i+1:]
	}
	return strings.ToUpper(strings.TrimSpace(t))
}

// LoadCompanies 读取候选公司 CSV（需包含 name、ticker、f_score 列）
func LoadCompanies(path string) ([]models.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open companies: %w", err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read companies %s: %w", path, err)
	}

	companies := make([]models.Company, 0, len(rows))
	for _, row := range rows {
		score, _ := strconv.ParseFloat(strings.TrimSpace(row["f_score"]), 64)
		companies = append(companies, models.Company{
			Name:   strings.TrimSpace(row["name"]),
			Ticker: strings.TrimSpace(row["ticker"]),
			FScore: score,
		})
	}
	return companies, nil
}

// readCSV 读取带表头的 CSV，每行转为 列名 -> 值
func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
