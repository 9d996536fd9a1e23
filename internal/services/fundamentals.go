package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"

	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/models"
)

// 统计表标签 -> 指标名（与行情源字段名一致）
var statisticLabels = map[string]string{
	"previous close":         "previousClose",
	"open":                   "open",
	"volume":                 "volume",
	"avg. volume":            "averageVolume",
	"market cap":             "marketCap",
	"market cap (intraday)":  "marketCap",
	"beta (5y monthly)":      "beta",
	"pe ratio (ttm)":         "trailingPE",
	"forward p/e":            "forwardPE",
	"eps (ttm)":              "trailingEps",
	"price/book":             "priceToBook",
	"price/book (mrq)":       "priceToBook",
	"profit margin":          "profitMargins",
	"return on equity":       "returnOnEquity",
	"return on equity (ttm)": "returnOnEquity",
}

// 实时价格字段
var streamerFields = map[string]string{
	"regularMarketPrice":  "currentPrice",
	"regularMarketVolume": "volume",
	"marketCap":           "marketCap",
}

// Fundamentals 获取个股基本面，命中缓存时不发起请求
func (s *MarketService) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("fundamentals: %w", ErrNoData)
	}
	if s.cache != nil {
		if f, ok := s.cache.Get(ticker); ok {
			metrics.RecordCacheHit("fundamentals")
			return &f, nil
		}
	}

	start := time.Now()
	f, err := s.fetchFundamentals(ctx, ticker)
	observe("fundamentals", start, err)
	if err != nil {
		return nil, fmt.Errorf("fundamentals %s: %w", ticker, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ticker, *f); err != nil {
			log.Warn("cache fundamentals %s: %v", ticker, err)
		}
	}
	return f, nil
}

func (s *MarketService) fetchFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	body, err := s.get(ctx, s.quotePageURL+"/"+url.PathEscape(ticker)+"/")
	if err != nil {
		return nil, err
	}
	return ParseQuotePage(ticker, body)
}

// ParseQuotePage 解析行情页 HTML
func ParseQuotePage(ticker string, html []byte) (*models.Fundamentals, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse quote page: %w", err)
	}

	f := &models.Fundamentals{
		Symbol:  ticker,
		Metrics: make(map[string]float64),
		Profile: make(map[string]string),
	}

	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		// "Apple Inc. (AAPL)"
		if i := strings.LastIndex(title, " ("); i > 0 {
			title = title[:i]
		}
		f.LongName = title
	}

	doc.Find("fin-streamer[data-field]").Each(func(_ int, sel *goquery.Selection) {
		if sym, ok := sel.Attr("data-symbol"); ok && !strings.EqualFold(sym, ticker) {
			return
		}
		field, _ := sel.Attr("data-field")
		key, ok := streamerFields[field]
		if !ok {
			return
		}
		raw, ok := sel.Attr("data-value")
		if !ok {
			raw = sel.Text()
		}
		if v, ok := ParseNumber(raw); ok {
			f.Metrics[key] = v
		}
	})

	doc.Find(`[data-testid="quote-statistics"] li`).Each(func(_ int, sel *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(sel.Find(".label").Text()))
		value := strings.TrimSpace(sel.Find(".value").Text())
		switch label {
		case "52 week range":
			if low, high, ok := parseRange(value); ok {
				f.Metrics["fiftyTwoWeekLow"] = low
				f.Metrics["fiftyTwoWeekHigh"] = high
			}
			return
		case "forward dividend & yield":
			if y, ok := parseDividendYield(value); ok {
				f.Metrics["dividendYield"] = y
			}
			return
		}
		if key, ok := statisticLabels[label]; ok {
			if v, ok := ParseNumber(value); ok {
				if _, exists := f.Metrics[key]; !exists {
					f.Metrics[key] = v
				}
			}
		}
	})

	profile := map[string]string{
		"sector":              `[data-testid="company-sector"]`,
		"industry":            `[data-testid="company-industry"]`,
		"longBusinessSummary": `[data-testid="company-description"]`,
	}
	for key, selector := range profile {
		if text := strings.Join(strings.Fields(doc.Find(selector).First().Text()), " "); text != "" {
			f.Profile[key] = text
		}
	}
	if href, ok := doc.Find(`[data-testid="company-website"]`).First().Attr("href"); ok {
		f.Profile["website"] = href
	}

	if len(f.Metrics) == 0 && f.LongName == "" {
		return nil, ErrNoData
	}
	return f, nil
}

// ParseNumber 解析页面数值：去掉千分位，支持 K/M/B/T 后缀与百分号，N/A 返回 false
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || strings.EqualFold(s, "N/A") || s == "--" {
		return 0, false
	}

	scale := 1.0
	switch {
	case strings.HasSuffix(s, "%"):
		scale, s = 0.01, strings.TrimSuffix(s, "%")
	case strings.HasSuffix(s, "T"):
		scale, s = 1e12, strings.TrimSuffix(s, "T")
	case strings.HasSuffix(s, "B"):
		scale, s = 1e9, strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		scale, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "k"), strings.HasSuffix(s, "K"):
		scale, s = 1e3, s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

// parseRange 解析 "164.08 - 199.62"
func parseRange(s string) (float64, float64, bool) {
	parts := strings.Split(s, " - ")
	if len(parts) != 2 {
		return 0, 0, false
	}
	low, ok1 := ParseNumber(parts[0])
	high, ok2 := ParseNumber(parts[1])
	return low, high, ok1 && ok2
}

// parseDividendYield 解析 "0.96 (0.50%)"
func parseDividendYield(s string) (float64, bool) {
	open, end := strings.Index(s, "("), strings.Index(s, ")")
	if open < 0 || end <= open {
		return 0, false
	}
	return ParseNumber(s[open+1 : end])
}

// fundamentalsLine 基本面报告中的一行
type fundamentalsLine struct {
	label   string
	key     string
	aliases []string
	format  func(float64) string
}

func formatPlain(v float64) string   { return strconv.FormatFloat(v, 'f', 2, 64) }
func formatDollars(v float64) string { return "$" + humanize.FormatFloat("#,###.##", v) }
func formatPercent(v float64) string { return strconv.FormatFloat(v*100, 'f', 2, 64) + "%" }

var fundamentalsLines = []fundamentalsLine{
	{"Current Price", "currentPrice", []string{"price", "current price"}, formatDollars},
	{"Market Cap", "marketCap", []string{"market cap", "marketcap", "cap", "market capitalization"}, formatDollars},
	{"PE Ratio (TTM)", "trailingPE", []string{"pe", "p/e", "pe ratio", "price to earnings"}, formatPlain},
	{"Forward PE", "forwardPE", []string{"forward pe", "forward p/e"}, formatPlain},
	{"EPS (TTM)", "trailingEps", []string{"eps", "earnings per share"}, formatPlain},
	{"Dividend Yield", "dividendYield", []string{"dividend", "dividends", "yield", "dividend yield"}, formatPercent},
	{"52 Week High", "fiftyTwoWeekHigh", []string{"52 week high", "52w high", "high"}, formatDollars},
	{"52 Week Low", "fiftyTwoWeekLow", []string{"52 week low", "52w low", "low"}, formatDollars},
	{"Beta", "beta", []string{"beta", "volatility"}, formatPlain},
	{"Volume", "volume", []string{"volume"}, func(v float64) string { return humanize.Comma(int64(v)) }},
}

// FundamentalsReport 生成基本面报告文本；requested 非空时只输出匹配的指标行
func (s *MarketService) FundamentalsReport(ctx context.Context, ticker string, requested []string) (string, error) {
	f, err := s.Fundamentals(ctx, ticker)
	if err != nil {
		return "", err
	}
	return RenderFundamentals(f, requested), nil
}

// RenderFundamentals 渲染基本面报告
func RenderFundamentals(f *models.Fundamentals, requested []string) string {
	lines := selectLines(requested)
	filtered := len(lines) < len(fundamentalsLines)

	name := f.LongName
	if name == "" {
		name = f.Symbol
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s (%s)**\n", name, f.Symbol)
	for _, line := range lines {
		value := "N/A"
		if v, ok := f.Metrics[line.key]; ok {
			value = line.format(v)
		}
		fmt.Fprintf(&sb, "- **%s:** %s\n", line.label, value)
	}
	if filtered {
		return strings.TrimRight(sb.String(), "\n")
	}

	for _, p := range []struct{ label, key string }{
		{"Sector", "sector"},
		{"Industry", "industry"},
		{"Website", "website"},
	} {
		fmt.Fprintf(&sb, "- **%s:** %s\n", p.label, profileValue(f, p.key))
	}
	fmt.Fprintf(&sb, "\n**Business Summary:**\n%s", profileValue(f, "longBusinessSummary"))
	return sb.String()
}

// selectLines 按请求的指标名挑选报告行，没有任何匹配时返回全部
func selectLines(requested []string) []fundamentalsLine {
	if len(requested) == 0 {
		return fundamentalsLines
	}
	var out []fundamentalsLine
	for _, line := range fundamentalsLines {
		if lineMatches(line, requested) {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return fundamentalsLines
	}
	return out
}

func lineMatches(line fundamentalsLine, requested []string) bool {
	for _, r := range requested {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == strings.ToLower(line.key) || r == strings.ToLower(line.label) {
			return true
		}
		for _, alias := range line.aliases {
			if r == alias {
				return true
			}
		}
	}
	return false
}

func profileValue(f *models.Fundamentals, key string) string {
	if v := f.Profile[key]; v != "" {
		return v
	}
	return "N/A"
}
