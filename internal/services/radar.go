package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/run-bigpig/ava/internal/models"
)

// MetricMatrix 获取雷达图指标矩阵
// 没有任何指标的 ticker 被丢弃并写入 warning；全部失败时返回 ErrNoData
func (s *MarketService) MetricMatrix(ctx context.Context, tickers, metricNames []string) (models.MetricMatrix, string, error) {
	var (
		mu     sync.Mutex
		matrix = make(models.MetricMatrix, len(tickers))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, ticker := range tickers {
		ticker := strings.ToUpper(ticker)
		g.Go(func() error {
			f, err := s.Fundamentals(gctx, ticker)
			if err != nil {
				// 单只失败不影响其他 ticker
				return nil
			}
			row := make(map[string]*float64, len(metricNames))
			hasValue := false
			for _, m := range metricNames {
				if v, ok := f.Metrics[m]; ok {
					row[m] = &v
					hasValue = true
				} else {
					row[m] = nil
				}
			}
			if !hasValue {
				return nil
			}
			mu.Lock()
			matrix[ticker] = row
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	if len(matrix) == 0 {
		return nil, "", fmt.Errorf("unable to retrieve data for %s: %w", strings.Join(tickers, ", "), ErrNoData)
	}

	var failed, kept []string
	for _, t := range tickers {
		t = strings.ToUpper(t)
		if _, ok := matrix[t]; ok {
			kept = append(kept, t)
		} else {
			failed = append(failed, t)
		}
	}
	var warning string
	if len(failed) > 0 {
		warning = fmt.Sprintf("Warning: Unable to retrieve data for %s. Proceeding with %s.",
			strings.Join(failed, ", "), strings.Join(kept, ", "))
	}
	return matrix, warning, nil
}

// MatrixTickers 按请求顺序返回矩阵中存在的 ticker
func MatrixTickers(matrix models.MetricMatrix, requested []string) []string {
	var out []string
	for _, t := range requested {
		t = strings.ToUpper(t)
		if _, ok := matrix[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
