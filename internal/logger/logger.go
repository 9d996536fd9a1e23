package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String 返回级别名称
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel 解析日志级别字符串，无法识别时返回 INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger 日志记录器
type Logger struct {
	module string

	mu    sync.Mutex
	gen   int
	sugar *zap.SugaredLogger
}

var (
	mu          sync.RWMutex
	generation  = 1
	globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base        = newBase("development")
)

func newBase(env string) *zap.Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}
	cfg.Level = globalLevel
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init 按运行环境重建底层 zap logger（production 输出 JSON）
func Init(level Level, env string) {
	mu.Lock()
	defer mu.Unlock()
	globalLevel.SetLevel(level.zapLevel())
	base = newBase(env)
	generation++
}

// SetGlobalLevel 设置全局日志级别
func SetGlobalLevel(level Level) {
	globalLevel.SetLevel(level.zapLevel())
}

// New 创建新的日志记录器
func New(module string) *Logger {
	return &Logger{module: module}
}

// logger 延迟取底层实例，使 Init 之前创建的包级 logger 也能生效
func (l *Logger) logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sugar == nil || l.gen != generation {
		l.sugar = base.Named(l.module).Sugar()
		l.gen = generation
	}
	return l.sugar
}

// Debug 调试日志
func (l *Logger) Debug(format string, args ...any) {
	l.logger().Debugf(format, args...)
}

// Info 信息日志
func (l *Logger) Info(format string, args ...any) {
	l.logger().Infof(format, args...)
}

// Warn 警告日志
func (l *Logger) Warn(format string, args ...any) {
	l.logger().Warnf(format, args...)
}

// Error 错误日志
func (l *Logger) Error(format string, args ...any) {
	l.logger().Errorf(format, args...)
}

// WithError 带错误的日志
func (l *Logger) WithError(err error) *Logger {
	if err != nil {
		l.Error("error: %v", err)
	}
	return l
}
