// Package logging 进程级日志开关
//
// 对 log/slog 的简单封装，--log 关闭时所有输出被丢弃，--debug 打开调试级别。
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger    *slog.Logger
	loggerMu  sync.RWMutex
	output    io.Writer = os.Stdout
	enabled   = true
	debugMode bool
)

func init() {
	rebuild()
}

// rebuild 按当前开关重建 logger，调用方需持有写锁或处于 init
func rebuild() {
	if !enabled {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetEnabled 打开或关闭日志
func SetEnabled(on bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	enabled = on
	rebuild()
}

// IsEnabled 日志是否打开
func IsEnabled() bool {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return enabled
}

// SetDebugMode 设置调试模式
func SetDebugMode(on bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	debugMode = on
	rebuild()
}

// IsDebugMode 是否调试模式
func IsDebugMode() bool {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return debugMode
}

// SetOutput 设置日志输出目标
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	output = w
	rebuild()
}

func current() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}

// LogDebug 调试日志
func LogDebug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// LogInfo 信息日志
func LogInfo(msg string, args ...any) {
	current().Info(msg, args...)
}

// LogWarn 警告日志
func LogWarn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// LogError 错误日志
func LogError(msg string, args ...any) {
	current().Error(msg, args...)
}
