// Package player 单个连接的播放状态机与定时循环
//
// 每个连接一个 Engine，自己持有 index/playing/anchor，只读共享的 framestore.Store。
// 读循环通过 Send 把命令投递到通道，由播放协程独占消费，两边不共享可变字段。
package player

import "fmt"

// Kind 命令类型
type Kind int

const (
	KindToggle Kind = iota + 1
	KindSkip
	KindQuit
)

// Command 播放控制命令
type Command struct {
	Kind Kind
	Step int // 仅 KindSkip 使用，单位为帧，可为负
}

// Toggle 暂停/继续
func Toggle() Command {
	return Command{Kind: KindToggle}
}

// SkipBy 前进或后退 n 帧
func SkipBy(n int) Command {
	return Command{Kind: KindSkip, Step: n}
}

// Quit 结束播放
func Quit() Command {
	return Command{Kind: KindQuit}
}

func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindSkip:
		return "skip"
	case KindQuit:
		return "quit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (c Command) String() string {
	if c.Kind == KindSkip {
		return fmt.Sprintf("skip(%+d)", c.Step)
	}
	return c.Kind.String()
}
