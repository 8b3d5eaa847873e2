package player

import (
	"context"
	"sync"
	"time"

	"ascii-telnet/internal/framestore"
	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/models"

	"github.com/benbjohnson/clock"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultQueueSize    = 16
)

// Sink 帧输出目标
// WriteFrame 必须在数据真正交给对端（写入并 flush）后才返回，慢客户端因此只拖慢自己的循环。
type Sink interface {
	WriteFrame(p []byte) error
}

// Options 引擎参数，零值使用默认
type Options struct {
	Clock        clock.Clock
	PollInterval time.Duration // 暂停时刷新 Anchor 的间隔
	QueueSize    int
}

// Snapshot 对外可见的状态副本
type Snapshot struct {
	Index      int   `json:"index"`
	Frames     int   `json:"frames"`
	Playing    bool  `json:"playing"`
	FramesSent int64 `json:"framesSent"`
}

// Engine 单连接播放引擎
type Engine struct {
	store *framestore.Store
	sink  Sink
	clock clock.Clock
	poll  time.Duration

	cmds chan Command
	done chan struct{}

	state State // 只在 Run 协程中访问
	sent  int64

	mu   sync.Mutex
	snap Snapshot
}

// New 创建引擎，store 必须非空
func New(store *framestore.Store, sink Sink, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	e := &Engine{
		store: store,
		sink:  sink,
		clock: opts.Clock,
		poll:  opts.PollInterval,
		cmds:  make(chan Command, opts.QueueSize),
		done:  make(chan struct{}),
		state: State{Playing: true},
	}
	e.snap = Snapshot{Frames: store.Len(), Playing: true}
	return e
}

// Send 投递命令；引擎已结束时返回 false
func (e *Engine) Send(cmd Command) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.cmds <- cmd:
		return true
	case <-e.done:
		return false
	}
}

// Done 引擎结束后关闭
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Snapshot 当前状态副本
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Run 播放循环，直到 ctx 取消、收到 Quit 或输出失败
// 输出失败视为正常断开，返回 nil；ctx 取消时返回 ctx.Err()。
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	length := e.store.Len()

	// 首次输出总是清屏归位，与第一帧内容无关
	if err := e.sink.WriteFrame([]byte(models.ResetScreen)); err != nil {
		logging.LogDebug("[Player] 输出失败", "error", err)
		return nil
	}
	e.state.Anchor = e.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if quit := e.drain(); quit {
			return nil
		}

		now := e.clock.Now()
		if e.state.SeekPending {
			e.state.Rebase(now, e.store.Timestamp(e.state.Index))
			e.state.SeekPending = false
		}

		if !e.state.Playing {
			quit, err := e.waitPaused(ctx)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			e.state.Rebase(e.clock.Now(), e.store.Timestamp(e.state.Index))
			continue
		}

		frame := e.store.Frame(e.state.Index)
		if wait := e.state.Due(now, frame.Timestamp); wait > 0 {
			woken, quit, err := e.sleep(ctx, wait)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			if woken {
				continue
			}
		}

		if err := e.sink.WriteFrame(frame.Payload); err != nil {
			logging.LogDebug("[Player] 输出失败", "error", err)
			return nil
		}
		e.sent++

		e.state.Advance(e.clock.Now(), length)
		e.publish()
	}
}

// drain 非阻塞地应用所有待处理命令
func (e *Engine) drain() (quit bool) {
	for {
		select {
		case cmd := <-e.cmds:
			if e.apply(cmd) {
				return true
			}
		default:
			return false
		}
	}
}

// waitPaused 暂停时等待一个轮询间隔或下一条命令
func (e *Engine) waitPaused(ctx context.Context) (quit bool, err error) {
	t := e.clock.Timer(e.poll)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case cmd := <-e.cmds:
		return e.apply(cmd), nil
	case <-t.C:
		return false, nil
	}
}

// sleep 等待当前帧到期；期间收到命令则应用并提前返回 woken=true
func (e *Engine) sleep(ctx context.Context, d time.Duration) (woken, quit bool, err error) {
	t := e.clock.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false, false, ctx.Err()
	case cmd := <-e.cmds:
		return true, e.apply(cmd), nil
	case <-t.C:
		return false, false, nil
	}
}

// apply 应用一条命令，返回是否退出
func (e *Engine) apply(cmd Command) bool {
	switch cmd.Kind {
	case KindToggle:
		e.state.Toggle()
		logging.LogDebug("[Player] 暂停切换", "playing", e.state.Playing, "index", e.state.Index)
	case KindSkip:
		e.state.Skip(cmd.Step, e.store.Len())
		logging.LogDebug("[Player] 跳转", "step", cmd.Step, "index", e.state.Index)
	case KindQuit:
		return true
	}
	e.publish()
	return false
}

func (e *Engine) publish() {
	e.mu.Lock()
	e.snap.Index = e.state.Index
	e.snap.Playing = e.state.Playing
	e.snap.FramesSent = e.sent
	e.mu.Unlock()
}
