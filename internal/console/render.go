// Package console 终端会话宿主：读取用户输入、渲染分派结果
package console

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/run-bigpig/ava/internal/advisor"
	"github.com/run-bigpig/ava/internal/models"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#5C7A84")
)

type styles struct {
	title   lipgloss.Style
	speaker lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	border  lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		speaker: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		err:     lipgloss.NewStyle().Foreground(colorError),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		border:  lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// Renderer 把分派结果写到终端
type Renderer struct {
	out    io.Writer
	styles styles
}

// NewRenderer 创建渲染器，color 为 false 时输出纯文本（非终端或重定向）
func NewRenderer(out io.Writer, color bool) *Renderer {
	return &Renderer{out: out, styles: newStyles(color)}
}

// Result 依次输出提示、报告、表格、图表摘要和回复
func (r *Renderer) Result(res advisor.Result) {
	for _, n := range res.Notices {
		r.Notice(n)
	}
	if res.Report != "" {
		r.section(reportTitle(res.Branch), res.Report)
	}
	if res.Risk != nil && res.Risk.Parsed != nil {
		r.section("Parsed Risk Profile Data", renderRecord(res.Risk.Parsed))
	}
	if res.Table != nil {
		r.section("Results from pe_div_yield_table", r.Table(res.Table))
	}
	if res.Chart != nil {
		r.section(res.Chart.Title, r.Chart(res.Chart))
	}
	if res.Reply != "" {
		fmt.Fprintf(r.out, "%s %s\n\n", r.styles.speaker.Render("Advisor:"), res.Reply)
	}
}

// Notice 输出一条警告或错误
func (r *Renderer) Notice(n advisor.Notice) {
	switch n.Level {
	case advisor.NoticeError:
		fmt.Fprintln(r.out, r.styles.err.Render("✗ "+n.Text))
	default:
		fmt.Fprintln(r.out, r.styles.warning.Render("⚠ "+n.Text))
	}
}

// Error 输出错误
func (r *Renderer) Error(err error) {
	r.Notice(advisor.Notice{Level: advisor.NoticeError, Text: err.Error()})
}

// Info 输出普通提示
func (r *Renderer) Info(text string) {
	fmt.Fprintln(r.out, r.styles.muted.Render(text))
}

// Table 渲染表格筛选结果
func (r *Renderer) Table(t *models.Table) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.border).
		Headers(t.Columns...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return tbl.String()
}

// Chart 图表以文本摘要输出：价格图给出首尾收盘价，雷达图给出指标矩阵
func (r *Renderer) Chart(c *models.Chart) string {
	switch c.Kind {
	case models.ChartRadar:
		return r.Table(radarTable(c))
	default:
		return r.Table(seriesTable(c.Series))
	}
}

func (r *Renderer) section(title, body string) {
	fmt.Fprintln(r.out, r.styles.title.Render(title))
	fmt.Fprintln(r.out, strings.TrimRight(body, "\n"))
	fmt.Fprintln(r.out)
}

func reportTitle(b advisor.Branch) string {
	switch b {
	case advisor.BranchResearch:
		return "Research Report"
	case advisor.BranchRiskProfile:
		return "Risk Profile Report (Raw JSON)"
	case advisor.BranchFundamentals:
		return "Fundamentals Report"
	}
	return "Report"
}

func renderRecord(rec models.RiskProfileRecord) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %v\n", k, rec[k])
	}
	return sb.String()
}

func seriesTable(series []models.PriceSeries) *models.Table {
	t := &models.Table{Columns: []string{"Ticker", "Period", "From", "To", "First", "Latest", "Change"}}
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		first, last := s.Points[0], s.Points[len(s.Points)-1]
		change := "N/A"
		if first.Close != 0 {
			change = strconv.FormatFloat((last.Close/first.Close-1)*100, 'f', 2, 64) + "%"
		}
		t.Rows = append(t.Rows, []string{
			s.Symbol,
			s.Period,
			first.Time.Format("2006-01-02"),
			last.Time.Format("2006-01-02"),
			fmt.Sprintf("$%.2f", first.Close),
			fmt.Sprintf("$%.2f", last.Close),
			change,
		})
	}
	return t
}

func radarTable(c *models.Chart) *models.Table {
	t := &models.Table{Columns: append([]string{"Ticker"}, c.Metrics...)}
	tickers := make([]string, 0, len(c.Matrix))
	for ticker := range c.Matrix {
		tickers = append(tickers, ticker)
	}
	slices.Sort(tickers)
	for _, ticker := range tickers {
		row := []string{ticker}
		for _, m := range c.Metrics {
			if v := c.Matrix[ticker][m]; v != nil {
				row = append(row, strconv.FormatFloat(*v, 'f', 2, 64))
			} else {
				row = append(row, "N/A")
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
