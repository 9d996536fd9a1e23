package services

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/run-bigpig/ava/internal/intent"
	"github.com/run-bigpig/ava/internal/models"
)

var (
	// ErrTableNotFound PE 表格 CSV 不存在
	ErrTableNotFound = errors.New("pe_div_yield_table.csv not found")
	// ErrNoThemeMatch 主题筛选没有结果
	ErrNoThemeMatch = errors.New("no results found for theme")
)

// 固定列顺序，请求的额外字段追加在后面
var tableColumnOrder = []string{"name", "ticker", "market_cap_usd", "pe_ratio", "dividen_yield", "description", "theme"}

// TableService PE / 股息率表格筛选
type TableService struct {
	csvPath string
	themes  map[string]string
}

// NewTableService 创建表格服务，themes 为小写主题别名 -> 数据集主题
func NewTableService(csvPath string, themes map[string]string) *TableService {
	return &TableService{csvPath: csvPath, themes: themes}
}

// MapTheme 把用户输入的主题映射为数据集中的主题，未知主题原样返回（小写）
func (t *TableService) MapTheme(theme string) string {
	lower := strings.ToLower(strings.TrimSpace(theme))
	if mapped, ok := t.themes[lower]; ok {
		return mapped
	}
	return lower
}

// Query 按主题筛选、排序并截断，返回格式化后的表格
func (t *TableService) Query(q intent.Table) (*models.Table, error) {
	start := time.Now()
	table, err := t.query(q)
	observe("table", start, err)
	return table, err
}

func (t *TableService) query(q intent.Table) (*models.Table, error) {
	f, err := os.Open(t.csvPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, fmt.Errorf("read table %s: %w", t.csvPath, err)
	}
	columns := presentColumns(rows)

	if q.Theme != "" {
		theme := strings.ToLower(t.MapTheme(q.Theme))
		rows = slices.DeleteFunc(rows, func(row map[string]string) bool {
			return !strings.Contains(strings.ToLower(row["theme"]), theme)
		})
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w '%s'", ErrNoThemeMatch, q.Theme)
		}
	}

	order := append([]string(nil), tableColumnOrder...)
	for _, field := range q.Fields {
		if !slices.Contains(order, field) {
			order = append(order, field)
		}
	}
	order = slices.DeleteFunc(order, func(c string) bool { return !columns[c] })

	if q.SortBy != "" && columns[q.SortBy] {
		sortRows(rows, q.SortBy, q.Order == "asc")
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	table := &models.Table{Columns: order, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		cells := make([]string, len(order))
		for i, c := range order {
			cells[i] = formatCell(c, row[c])
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// presentColumns CSV 中实际存在的列
func presentColumns(rows []map[string]string) map[string]bool {
	out := make(map[string]bool)
	for _, row := range rows {
		for c := range row {
			out[c] = true
		}
	}
	return out
}

// sortRows 数值列按 decimal 比较，非数值按文本比较，空值始终排在最后
func sortRows(rows []map[string]string, column string, ascending bool) {
	slices.SortStableFunc(rows, func(a, b map[string]string) int {
		av, aerr := decimal.NewFromString(strings.TrimSpace(a[column]))
		bv, berr := decimal.NewFromString(strings.TrimSpace(b[column]))
		switch {
		case aerr != nil && berr != nil:
			if strings.TrimSpace(a[column]) == "" || strings.TrimSpace(b[column]) == "" {
				return emptyLast(a[column], b[column])
			}
			if ascending {
				return cmp.Compare(a[column], b[column])
			}
			return cmp.Compare(b[column], a[column])
		case aerr != nil:
			return 1
		case berr != nil:
			return -1
		}
		if ascending {
			return av.Cmp(bv)
		}
		return bv.Cmp(av)
	})
}

func emptyLast(a, b string) int {
	ae, be := strings.TrimSpace(a) == "", strings.TrimSpace(b) == ""
	switch {
	case ae && !be:
		return 1
	case be && !ae:
		return -1
	}
	return 0
}

// formatCell 市值 $1,234.00，股息率百分比两位小数
func formatCell(column, raw string) string {
	raw = strings.TrimSpace(raw)
	switch column {
	case "market_cap_usd":
		if d, err := decimal.NewFromString(raw); err == nil {
			return "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
		}
	case "dividen_yield":
		if d, err := decimal.NewFromString(raw); err == nil {
			return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
		}
	}
	return raw
}
