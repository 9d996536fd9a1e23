package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/ava/internal/parser"
)

func decodeText(t *testing.T, text string) Intent {
	t.Helper()
	return Decode(parser.Parse(text))
}

func TestDecodeAdvicePriority(t *testing.T) {
	got := decodeText(t, "{'investment_advice': ['Y'], 'fundamentals': ['AAPL'], 'radar_chart': [['beta'], 'MSFT']}")
	assert.Equal(t, Advice{Mode: AdviceRequested}, got)

	got = decodeText(t, "{'investment_advice': ['N', 'R']}")
	assert.Equal(t, Advice{Mode: AdviceRisk}, got, "R outranks N")

	got = decodeText(t, "{'investment_advice': ['maybe'], 'price_chart': ['tsla']}")
	assert.Equal(t, PriceChart{Ticker: "TSLA", Period: DefaultPeriod}, got, "unknown advice mode falls through")
}

func TestDecodeFundamentals(t *testing.T) {
	got := decodeText(t, "{'fundamentals': ['AAPL'], 'fundamentals_type': 'PE, EPS'}")
	f, ok := got.(Fundamentals)
	require.True(t, ok)
	assert.Equal(t, "AAPL", f.Ticker())
	assert.Equal(t, []string{"PE", "EPS"}, f.Metrics)
	assert.NoError(t, f.Validate())

	got = decodeText(t, "{'fundamentals': []}")
	assert.ErrorIs(t, got.Validate(), ErrNoTickers)
	assert.Equal(t, KindFundamentals, got.Kind())

	got = decodeText(t, `{"fundamentals": "msft"}`)
	assert.Equal(t, "MSFT", got.(Fundamentals).Ticker())
}

func TestDecodePriceChart(t *testing.T) {
	assert.Equal(t, PriceChart{Ticker: "AAPL", Period: "6mo"}, decodeText(t, "{'price_chart': ['AAPL', '6mo']}"))
	assert.Equal(t, PriceChart{Ticker: "AAPL", Period: DefaultPeriod}, decodeText(t, "{'price_chart': ['AAPL']}"))
	assert.Equal(t, PriceChart{Ticker: "AAPL", Period: DefaultPeriod}, decodeText(t, "{'price_chart': ['AAPL', '2w']}"))

	got := decodeText(t, "{'price_chart': []}")
	assert.ErrorIs(t, got.Validate(), ErrNoTickers)
}

func TestDecodeCompare(t *testing.T) {
	got := decodeText(t, "{'compare_price_chart': ['AAPL', 'msft', '1y']}")
	assert.Equal(t, ComparePriceChart{Tickers: []string{"AAPL", "MSFT"}, Period: "1y"}, got)

	got = decodeText(t, "{'compare_price_chart': ['AAPL', 'MSFT']}")
	assert.Equal(t, ComparePriceChart{Tickers: []string{"AAPL", "MSFT"}, Period: DefaultPeriod}, got)

	got = decodeText(t, "{'compare_price_chart': ['5y']}")
	assert.ErrorIs(t, got.Validate(), ErrNoTickers)
}

func TestDecodeRadar(t *testing.T) {
	got := decodeText(t, "{'radar_chart': [['trailingPE', 'dividendYield'], 'AAPL', 'MSFT']}")
	assert.Equal(t, RadarChart{Metrics: []string{"trailingPE", "dividendYield"}, Tickers: []string{"AAPL", "MSFT"}}, got)
	assert.NoError(t, got.Validate())

	for name, text := range map[string]string{
		"no tickers":         "{'radar_chart': [['trailingPE']]}",
		"metrics not list":   "{'radar_chart': ['trailingPE', 'AAPL']}",
		"empty metrics":      "{'radar_chart': [[], 'AAPL']}",
		"not a list":         "{'radar_chart': 'AAPL'}",
		"nested ticker list": "{'radar_chart': [['beta'], ['AAPL']]}",
	} {
		t.Run(name, func(t *testing.T) {
			got := decodeText(t, text)
			assert.Equal(t, KindRadarChart, got.Kind())
			assert.Error(t, got.Validate())
		})
	}
}

func TestDecodeTable(t *testing.T) {
	got := decodeText(t, "{'pe_div_yield_table': {'theme': 'AI', 'limit': 5, 'order': 'ASC'}}")
	assert.Equal(t, Table{
		Fields: []string{"pe_ratio", "dividen_yield"},
		Theme:  "AI",
		SortBy: DefaultTableSortBy,
		Order:  "asc",
		Limit:  5,
	}, got)

	got = decodeText(t, "{'pe_div_yield_table': {}}")
	assert.Equal(t, Table{Fields: DefaultTableFields, SortBy: DefaultTableSortBy, Order: DefaultTableOrder}, got)

	assert.Equal(t, Unclassified{}, decodeText(t, "{'pe_div_yield_table': ['ai']}"))
}

func TestDecodeUnclassified(t *testing.T) {
	for _, text := range []string{
		"",
		"I'm not sure what you mean.",
		"{'something_else': 1}",
		"{'investment_advice': []}",
	} {
		got := decodeText(t, text)
		assert.Equal(t, Unclassified{}, got, text)
		assert.NoError(t, got.Validate())
	}
}

func TestDecodeTableOnly(t *testing.T) {
	m := parser.Parse("{'investment_advice': ['N'], 'pe_div_yield_table': {'theme': 'ev'}}")
	require.IsType(t, Advice{}, Decode(m))

	tbl, ok := DecodeTable(m)
	require.True(t, ok)
	assert.Equal(t, "ev", tbl.Theme)

	_, ok = DecodeTable(parser.Parse("{'investment_advice': ['N']}"))
	assert.False(t, ok)
}
