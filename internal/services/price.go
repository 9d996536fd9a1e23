package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/run-bigpig/ava/internal/models"
)

// chartResponse 行情图表接口响应
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// intervalFor 周期对应的采样间隔
func intervalFor(period string) string {
	switch period {
	case "1d":
		return "5m"
	case "5d":
		return "30m"
	case "5y", "max":
		return "1wk"
	default:
		return "1d"
	}
}

// PriceSeries 获取单只股票的收盘价序列
func (s *MarketService) PriceSeries(ctx context.Context, ticker, period string) (models.PriceSeries, error) {
	start := time.Now()
	series, err := s.fetchSeries(ctx, ticker, period)
	observe("price_series", start, err)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("no data found for %s over the period %s: %w", ticker, period, err)
	}
	return series, nil
}

// ComparePriceSeries 并发获取多只股票的价格序列，任一失败则整体失败
func (s *MarketService) ComparePriceSeries(ctx context.Context, tickers []string, period string) ([]models.PriceSeries, error) {
	out := make([]models.PriceSeries, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, ticker := range tickers {
		g.Go(func() error {
			series, err := s.PriceSeries(gctx, ticker, period)
			if err != nil {
				return err
			}
			out[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MarketService) fetchSeries(ctx context.Context, ticker, period string) (models.PriceSeries, error) {
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", intervalFor(period))
	body, err := s.get(ctx, s.chartAPIURL+"/"+url.PathEscape(strings.ToUpper(ticker))+"?"+q.Encode())
	if err != nil {
		return models.PriceSeries{}, err
	}
	return ParseChart(ticker, period, body)
}

// ParseChart 解析图表接口 JSON，跳过空收盘价
func ParseChart(ticker, period string, body []byte) (models.PriceSeries, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.PriceSeries{}, fmt.Errorf("decode chart: %w", err)
	}
	if e := resp.Chart.Error; e != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %s", ErrNoData, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return models.PriceSeries{}, ErrNoData
	}

	result := resp.Chart.Result[0]
	series := models.PriceSeries{Symbol: strings.ToUpper(ticker), Period: period}
	if result.Meta.Symbol != "" {
		series.Symbol = result.Meta.Symbol
	}
	if len(result.Indicators.Quote) == 0 {
		return models.PriceSeries{}, ErrNoData
	}
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series.Points = append(series.Points, models.PricePoint{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	if len(series.Points) == 0 {
		return models.PriceSeries{}, ErrNoData
	}
	return series, nil
}
