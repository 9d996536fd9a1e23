package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/ava/internal/intent"
)

const tableCSV = `name,ticker,theme,description,dividen_yield,market_cap_usd,pe_ratio,country
Nvidia,NVDA,Artificial Intelligence,Chips,0.0003,3000000000000,65.2,US
Tesla,TSLA,Electric Vehicles,Cars,,800000000000,70.1,US
BYD,BYDDY,Electric Vehicles,Cars,0.012,90000000000.5,22.4,CN
Nio,NIO,Electric Vehicles,Cars,0,10000000000,,CN
`

func newTableService(t *testing.T) *TableService {
	path := writeFile(t, "pe_div_yield_table.csv", tableCSV)
	return NewTableService(path, map[string]string{"ev": "electric vehicles", "ai": "artificial intelligence"})
}

func defaultTable() intent.Table {
	return intent.Table{
		Fields: append([]string(nil), intent.DefaultTableFields...),
		SortBy: intent.DefaultTableSortBy,
		Order:  intent.DefaultTableOrder,
	}
}

func TestTableThemeFilterAndSort(t *testing.T) {
	q := defaultTable()
	q.Theme = "EV"

	table, err := newTableService(t).Query(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "ticker", "market_cap_usd", "pe_ratio", "dividen_yield", "description", "theme"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Tesla", "TSLA", "$800,000,000,000.00", "70.1", "", "Cars", "Electric Vehicles"}, table.Rows[0])
	assert.Equal(t, "$90,000,000,000.50", table.Rows[1][2])
	assert.Equal(t, "1.20%", table.Rows[1][4])
	assert.Equal(t, "0.00%", table.Rows[2][4])
}

func TestTableAscendingWithEmptyLast(t *testing.T) {
	q := defaultTable()
	q.SortBy = "pe_ratio"
	q.Order = "asc"

	table, err := newTableService(t).Query(q)
	require.NoError(t, err)

	var tickers []string
	for _, row := range table.Rows {
		tickers = append(tickers, row[1])
	}
	assert.Equal(t, []string{"BYDDY", "NVDA", "TSLA", "NIO"}, tickers)
}

func TestTableExtraFieldsAndLimit(t *testing.T) {
	q := defaultTable()
	q.Fields = []string{"pe_ratio", "country", "not_a_column"}
	q.Limit = 1

	table, err := newTableService(t).Query(q)
	require.NoError(t, err)

	assert.Equal(t, "country", table.Columns[len(table.Columns)-1])
	assert.NotContains(t, table.Columns, "not_a_column")
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "NVDA", table.Rows[0][1])
}

func TestTableNoThemeMatch(t *testing.T) {
	q := defaultTable()
	q.Theme = "psychedelics"

	_, err := newTableService(t).Query(q)
	require.ErrorIs(t, err, ErrNoThemeMatch)
	assert.Contains(t, err.Error(), "'psychedelics'")
}

func TestTableMissingCSV(t *testing.T) {
	svc := NewTableService(filepath.Join(t.TempDir(), "missing.csv"), nil)

	_, err := svc.Query(defaultTable())
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestMapTheme(t *testing.T) {
	svc := newTableService(t)
	assert.Equal(t, "electric vehicles", svc.MapTheme(" EV "))
	assert.Equal(t, "robots", svc.MapTheme("Robots"))
}
