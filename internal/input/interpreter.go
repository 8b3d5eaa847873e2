// Package input 把客户端按键映射为播放命令
package input

import (
	"strings"

	"ascii-telnet/internal/player"
)

// 按键序列
const (
	KeyRight    = "\x1b[C"
	KeyRightSS3 = "\x1bOC"
	KeyLeft     = "\x1b[D"
	KeyLeftSS3  = "\x1bOD"
	KeyPageUp   = "\x1b[5~"
	KeyPageDown = "\x1b[6~"
	KeyCtrlC    = '\x03'
)

const (
	DefaultStep     = 5
	DefaultPageStep = 20
)

// CommandSink 命令接收方，player.Engine 实现了该接口
type CommandSink interface {
	Send(cmd player.Command) bool
}

// Binding 一个按键序列到命令的映射
type Binding struct {
	Seq string
	Cmd player.Command
}

// Options 解释器参数
type Options struct {
	Step     int  // 方向键跳转帧数
	PageStep int  // 翻页键跳转帧数
	PageKeys bool // 是否启用翻页键
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{Step: DefaultStep, PageStep: DefaultPageStep, PageKeys: true}
}

// Interpreter 按优先级匹配转义序列，其余字符逐个处理
type Interpreter struct {
	bindings []Binding
}

// New 创建解释器
func New(opts Options) *Interpreter {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.PageStep <= 0 {
		opts.PageStep = DefaultPageStep
	}

	bindings := []Binding{
		{KeyRight, player.SkipBy(opts.Step)},
		{KeyRightSS3, player.SkipBy(opts.Step)},
		{KeyLeft, player.SkipBy(-opts.Step)},
		{KeyLeftSS3, player.SkipBy(-opts.Step)},
	}
	if opts.PageKeys {
		bindings = append(bindings,
			Binding{KeyPageDown, player.SkipBy(opts.PageStep)},
			Binding{KeyPageUp, player.SkipBy(-opts.PageStep)},
		)
	}
	return &Interpreter{bindings: bindings}
}

// Bindings 转义序列映射表（按优先级）
func (in *Interpreter) Bindings() []Binding {
	out := make([]Binding, len(in.bindings))
	copy(out, in.bindings)
	return out
}

// Interpret 解释一段已过滤的文本，返回 false 表示客户端请求退出
//
// 命中某个转义序列时只执行该序列的命令，本次剩余文本忽略。
func (in *Interpreter) Interpret(text string, sink CommandSink) bool {
	for _, b := range in.bindings {
		if strings.Contains(text, b.Seq) {
			sink.Send(b.Cmd)
			return true
		}
	}

	for _, r := range text {
		switch r {
		case ' ':
			sink.Send(player.Toggle())
		case 'q', 'Q', KeyCtrlC:
			return false
		}
	}
	return true
}
