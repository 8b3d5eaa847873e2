package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"ascii-telnet/internal/input"
	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/player"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 会话传输类型
const (
	TransportTelnet    = "telnet"
	TransportRaw       = "raw"
	TransportWebSocket = "websocket"
	TransportEvents    = "events"
)

// Session 一个客户端连接
// 持有自己的播放引擎；读循环把按键转换成命令交给引擎。
type Session struct {
	ID        string
	Remote    string
	Transport string
	StartedAt time.Time

	engine *player.Engine
	closer io.Closer

	mu        sync.Mutex
	closed    bool
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// SessionInfo 会话信息（API 输出）
type SessionInfo struct {
	ID        string    `json:"id"`
	Remote    string    `json:"remote"`
	Transport string    `json:"transport"`
	StartedAt time.Time `json:"startedAt"`
	player.Snapshot
}

// NewSession 创建会话，closer 用于断开底层连接
func NewSession(transport, remote string, engine *player.Engine, closer io.Closer) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Remote:    remote,
		Transport: transport,
		StartedAt: time.Now(),
		engine:    engine,
		closer:    closer,
		cancel:    func() {},
	}
}

// Engine 会话的播放引擎
func (s *Session) Engine() *player.Engine {
	return s.engine
}

// Info 当前信息快照
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		Remote:    s.Remote,
		Transport: s.Transport,
		StartedAt: s.StartedAt,
		Snapshot:  s.engine.Snapshot(),
	}
}

// Start 在新协程中启动播放引擎，返回的 context 在会话结束时取消
// 已经 Close 的会话启动后立即结束。
func (s *Session) Start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.cancel = cancel
	closed := s.closed
	s.mu.Unlock()
	if closed {
		cancel()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.LogError("[Session] 播放协程 panic", "id", s.ID, "panic", r)
			}
		}()
		if err := s.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.LogWarn("[Session] 播放结束", "id", s.ID, "error", err)
		}
	}()

	// 引擎自行结束（输出失败、退出命令）或上层取消时断开连接，使阻塞的读返回
	go func() {
		select {
		case <-s.engine.Done():
		case <-ctx.Done():
		}
		s.Close()
	}()

	return ctx
}

// Close 结束会话，可重复调用
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		cancel := s.cancel
		s.mu.Unlock()

		cancel()
		if s.closer != nil {
			s.closer.Close()
		}
	})
}

// Wait 等待播放引擎退出
func (s *Session) Wait() {
	<-s.engine.Done()
}

// chunkReader 读取一段原始输入
type chunkReader func() ([]byte, error)

// readLoop 读取输入直到 EOF、出错或客户端退出
func (s *Session) readLoop(read chunkReader, decode func([]byte) string, in *input.Interpreter) string {
	for {
		data, err := read()
		if len(data) > 0 {
			if text := decode(data); text != "" {
				if !in.Interpret(text, s.engine) {
					return "quit"
				}
			}
		}
		if err != nil {
			if isDisconnect(err) {
				return "disconnect"
			}
			logging.LogDebug("[Session] 读取错误", "id", s.ID, "error", err)
			return "read error"
		}
	}
}

// isDisconnect 对端断开一类的错误，属于正常结束
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived,
			websocket.CloseAbnormalClosure)
}
