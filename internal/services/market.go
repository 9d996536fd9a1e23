// Package services 行情数据协作方：基本面、价格序列、雷达图指标、研报与表格筛选
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/run-bigpig/ava/internal/logger"
	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/models"
)

var log = logger.New("services")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ErrNoData 数据源没有返回可用数据
var ErrNoData = errors.New("no data")

// MarketConfig 行情服务配置
type MarketConfig struct {
	QuotePageURL string
	ChartAPIURL  string
	HTTPTimeout  time.Duration
	CacheDir     string // 为空时不缓存
	CacheTTL     time.Duration
}

// MarketService 行情服务
type MarketService struct {
	client       *http.Client
	quotePageURL string
	chartAPIURL  string
	cache        *FileCache[models.Fundamentals]
}

// NewMarketService 创建行情服务
func NewMarketService(cfg MarketConfig) (*MarketService, error) {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	s := &MarketService{
		client:       &http.Client{Timeout: timeout},
		quotePageURL: strings.TrimRight(cfg.QuotePageURL, "/"),
		chartAPIURL:  strings.TrimRight(cfg.ChartAPIURL, "/"),
	}
	if cfg.CacheDir != "" && cfg.CacheTTL > 0 {
		cache, err := NewFileCache[models.Fundamentals](cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("create fundamentals cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// get 发起 GET 请求并返回响应体
func (s *MarketService) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return body, nil
}

// observe 记录一次协作方调用
func observe(collaborator string, start time.Time, err error) {
	metrics.RecordCollaboratorCall(collaborator, time.Since(start), err)
	if err != nil {
		log.Warn("%s failed: %v", collaborator, err)
	}
}
