package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/run-bigpig/ava/internal/advisor"
	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/config"
	"github.com/run-bigpig/ava/internal/logger"
	"github.com/run-bigpig/ava/internal/models"
)

var log = logger.New("console")

// RiskProfileFile 风险画像导出文件名
const RiskProfileFile = "risk_profile_report.json"

// ErrNoRiskProfile 会话还没有生成风险画像
var ErrNoRiskProfile = errors.New("no risk profile has been generated yet")

const greeting = "Hello! I'm your equity investment advisor. How can I help you today?"

// Dispatcher 处理一条用户消息
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *advisor.SessionState, message string) (advisor.Result, error)
}

// MemoryTuner 可调整摘要窗口的分派器
type MemoryTuner interface {
	MemorySettings() models.MemorySettings
	SetMemorySettings(settings models.MemorySettings)
}

// REPL 终端交互循环
type REPL struct {
	dispatcher Dispatcher
	session    *advisor.SessionState
	renderer   *Renderer
	in         io.Reader
	exportDir  string
	prompt     string
}

// NewREPL 创建交互循环；prompt 为空时不输出输入提示（管道输入）
func NewREPL(d Dispatcher, in io.Reader, renderer *Renderer, exportDir, prompt string) *REPL {
	return &REPL{
		dispatcher: d,
		session:    advisor.NewSession(),
		renderer:   renderer,
		in:         in,
		exportDir:  exportDir,
		prompt:     prompt,
	}
}

// Session 当前会话
func (r *REPL) Session() *advisor.SessionState {
	return r.session
}

// Run 逐行读取输入直到 EOF、/quit 或 ctx 结束
func (r *REPL) Run(ctx context.Context) error {
	r.renderer.Info("Commands: /export saves the risk profile, /memory <messages> <reports> sets the summary windows, /reset starts a new session, /quit exits.")
	fmt.Fprintf(r.renderer.out, "%s %s\n\n", r.renderer.styles.speaker.Render("Advisor:"), greeting)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.prompt != "" {
			fmt.Fprint(r.renderer.out, r.prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/export":
			path, err := ExportRiskProfile(r.session, r.exportDir)
			if err != nil {
				r.renderer.Error(err)
				continue
			}
			r.renderer.Info("Risk profile saved to " + path)
		case line == "/memory" || strings.HasPrefix(line, "/memory "):
			if err := r.tuneMemory(strings.Fields(line)[1:]); err != nil {
				r.renderer.Error(err)
			}
		case line == "/reset":
			r.session = advisor.NewSession()
			r.renderer.Info("Started a new session.")
		default:
			r.handle(ctx, line)
		}
	}
}

func (r *REPL) handle(ctx context.Context, line string) {
	res, err := r.dispatcher.Dispatch(ctx, r.session, line)
	switch {
	case err == nil:
		r.renderer.Result(res)
	case errors.Is(err, advisor.ErrEmptyTickers):
		// 提示已包含在结果中
		r.renderer.Result(res)
	case errors.Is(err, agent.ErrModelCall):
		log.Error("session %s: %v", r.session.ID, err)
		r.renderer.Result(res)
		r.renderer.Error(fmt.Errorf("the model did not respond, please try again: %w", err))
	case errors.Is(err, context.Canceled):
		return
	default:
		r.renderer.Error(err)
	}
}

// tuneMemory 无参数时显示当前窗口，参数超出范围时截断到 [1, 10]
func (r *REPL) tuneMemory(args []string) error {
	tuner, ok := r.dispatcher.(MemoryTuner)
	if !ok {
		return errors.New("memory settings cannot be changed for this session")
	}
	settings := tuner.MemorySettings()
	if len(args) > 2 {
		return errors.New("usage: /memory <messages> [reports]")
	}
	windows := []*int{&settings.NumMessages, &settings.NumReports}
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid window %q: %w", arg, err)
		}
		*windows[i] = config.ClampWindow(n)
	}
	tuner.SetMemorySettings(settings)
	r.renderer.Info(fmt.Sprintf("Memory window: %d messages, %d reports.", settings.NumMessages, settings.NumReports))
	return nil
}

// ExportRiskProfile 把风险画像原文写入导出目录
func ExportRiskProfile(sess *advisor.SessionState, dir string) (string, error) {
	profile, ok := sess.RiskProfile()
	if !ok {
		return "", ErrNoRiskProfile
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, RiskProfileFile)
	if err := os.WriteFile(path, []byte(profile.Raw), 0o644); err != nil {
		return "", fmt.Errorf("write risk profile: %w", err)
	}
	return path, nil
}
