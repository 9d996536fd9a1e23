package advisor

import (
	"context"

	"github.com/run-bigpig/ava/internal/intent"
	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/services"
)

// ResearchSource 研报协作方
type ResearchSource interface {
	Produce(ctx context.Context) (*models.ResearchReport, error)
}

// FundamentalsSource 基本面协作方
type FundamentalsSource interface {
	FundamentalsReport(ctx context.Context, ticker string, requested []string) (string, error)
}

// ChartSource 价格与雷达图协作方
type ChartSource interface {
	PriceSeries(ctx context.Context, ticker, period string) (models.PriceSeries, error)
	ComparePriceSeries(ctx context.Context, tickers []string, period string) ([]models.PriceSeries, error)
	MetricMatrix(ctx context.Context, tickers, metrics []string) (models.MetricMatrix, string, error)
}

// TableSource PE / 股息率表格协作方
type TableSource interface {
	Query(q intent.Table) (*models.Table, error)
}

// Collaborators 分派用到的外部数据协作方
type Collaborators struct {
	Research     ResearchSource
	Fundamentals FundamentalsSource
	Charts       ChartSource
	Table        TableSource
}

// NewCollaborators 用行情服务组装协作方
func NewCollaborators(market *services.MarketService, research *services.ResearchService, table *services.TableService) Collaborators {
	return Collaborators{
		Research:     research,
		Fundamentals: market,
		Charts:       market,
		Table:        table,
	}
}
