package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"ascii-telnet/internal/config"
	"ascii-telnet/internal/framestore"
	"ascii-telnet/internal/input"
	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/player"
	"ascii-telnet/internal/telnet"

	"github.com/benbjohnson/clock"
)

const readBufferSize = 1024

// Server telnet 播放服务
// 每个连接一个会话，会话之间只共享只读的帧数据。
type Server struct {
	cfg      config.Config
	holder   *framestore.Holder
	interp   *input.Interpreter
	registry *Registry
	clock    clock.Clock

	startedAt time.Time
	wg        sync.WaitGroup
}

// Status 服务状态
type Status struct {
	Mode      string    `json:"mode"`
	Dataset   string    `json:"dataset"`
	Frames    int       `json:"frames"`
	Duration  float64   `json:"duration"`
	LoadedAt  time.Time `json:"loadedAt"`
	Reloads   int64     `json:"reloads"`
	Online    int       `json:"online"`
	Total     int64     `json:"total"`
	StartedAt time.Time `json:"startedAt"`
	Uptime    float64   `json:"uptime"`
}

// New 创建服务
func New(cfg config.Config, holder *framestore.Holder) *Server {
	return &Server{
		cfg:    cfg,
		holder: holder,
		interp: input.New(input.Options{
			Step:     cfg.SkipStep,
			PageStep: cfg.PageStep,
			PageKeys: cfg.PageKeys,
		}),
		registry:  NewRegistry(),
		clock:     clock.New(),
		startedAt: time.Now(),
	}
}

// Config 当前配置
func (s *Server) Config() config.Config {
	return s.cfg
}

// Holder 数据集
func (s *Server) Holder() *framestore.Holder {
	return s.holder
}

// Sessions 在线会话表
func (s *Server) Sessions() *Registry {
	return s.registry
}

// Interpreter 按键解释器
func (s *Server) Interpreter() *input.Interpreter {
	return s.interp
}

// NewEngine 用当前数据集创建播放引擎
// 数据集热更新只影响之后接入的会话。
func (s *Server) NewEngine(sink player.Sink) *player.Engine {
	return player.New(s.holder.Current(), sink, player.Options{
		Clock:        s.clock,
		PollInterval: s.cfg.PausePoll,
	})
}

// Status 服务状态
func (s *Server) Status() Status {
	store := s.holder.Current()
	return Status{
		Mode:      s.cfg.Mode(),
		Dataset:   store.Path(),
		Frames:    store.Len(),
		Duration:  store.Duration().Seconds(),
		LoadedAt:  store.LoadedAt(),
		Reloads:   s.holder.Reloads(),
		Online:    s.registry.Len(),
		Total:     s.registry.Total(),
		StartedAt: s.startedAt,
		Uptime:    time.Since(s.startedAt).Seconds(),
	}
}

// ListenAndServe 监听配置的地址并服务
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve 接受连接直到 ctx 取消，返回前等待所有 telnet 会话结束
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logging.LogInfo("[Telnet] 开始监听", "addr", ln.Addr().String(), "mode", s.cfg.Mode())

	var conns sync.WaitGroup
	defer conns.Wait()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logging.LogInfo("[Telnet] 停止监听", "addr", ln.Addr().String())
				return nil
			}
			logging.LogWarn("[Telnet] 接受连接失败", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Wait 等待所有会话（含 WebSocket）结束
func (s *Server) Wait() {
	s.wg.Wait()
}

// Shutdown 断开所有会话并等待
func (s *Server) Shutdown() {
	s.registry.CloseAll()
	s.wg.Wait()
}

// handleConn 处理一个 TCP 连接
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	transport := TransportTelnet
	decode := telnet.Strip
	if s.cfg.RawMode {
		transport = TransportRaw
		decode = telnet.Decode
	}

	if !s.cfg.RawMode {
		if s.cfg.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if _, err := conn.Write(telnet.Negotiation()); err != nil {
			logging.LogDebug("[Telnet] 协商失败", "remote", conn.RemoteAddr().String(), "error", err)
			conn.Close()
			return
		}
	}

	sink := newConnSink(conn, s.cfg.WriteTimeout)
	sess := NewSession(transport, conn.RemoteAddr().String(), s.NewEngine(sink), conn)

	buf := make([]byte, readBufferSize)
	read := func() ([]byte, error) {
		n, err := conn.Read(buf)
		return buf[:n], err
	}
	s.run(ctx, sess, read, decode)
}

// run 会话生命周期：登记、播放、读循环、清理
func (s *Server) run(ctx context.Context, sess *Session, read chunkReader, decode func([]byte) string) {
	s.wg.Add(1)
	defer s.wg.Done()

	sess.Start(ctx)
	s.registry.Add(sess)
	logging.LogInfo("[Session] 客户端接入", "id", sess.ID, "remote", sess.Remote, "transport", sess.Transport)

	defer func() {
		if r := recover(); r != nil {
			logging.LogError("[Session] 会话 panic", "id", sess.ID, "panic", r)
		}
		sess.Close()
		sess.Wait()
		s.registry.Remove(sess.ID)
	}()

	reason := sess.readLoop(read, decode, s.interp)

	snap := sess.Engine().Snapshot()
	logging.LogInfo("[Session] 客户端断开", "id", sess.ID, "reason", reason, "frames", snap.FramesSent)
}
