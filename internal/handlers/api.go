package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/websocket"
	"github.com/kataras/neffos"

	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/player"
	"ascii-telnet/internal/server"
)

// Namespace 事件命名空间
const Namespace = "player"

var (
	errNotStarted = errors.New("player not started")
	errConnClosed = errors.New("connection closed")
)

// emitSink 通过 "frame" 事件下发帧
type emitSink struct {
	c *neffos.NSConn
}

func (s *emitSink) WriteFrame(p []byte) error {
	if s.c.Conn.IsClosed() {
		return errConnClosed
	}
	if !s.c.EmitBinary("frame", p) {
		return errConnClosed
	}
	return nil
}

// EventHandler 事件式控制接口
// 与 telnet 相同的播放引擎，按键换成了 toggle/skip/quit 事件。
type EventHandler struct {
	srv      *server.Server
	sessions map[*neffos.Conn]*server.Session
	mu       sync.RWMutex
}

// NewEventHandler 创建事件处理器
func NewEventHandler(srv *server.Server) *EventHandler {
	return &EventHandler{
		srv:      srv,
		sessions: make(map[*neffos.Conn]*server.Session),
	}
}

func (h *EventHandler) session(c *neffos.NSConn) *server.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[c.Conn]
}

// OnConnect 连接建立
func (h *EventHandler) OnConnect(c *neffos.NSConn, msg neffos.Message) error {
	logging.LogDebug("[Events] 客户端连接", "conn", c.Conn.ID())
	return nil
}

// OnDisconnect 连接断开
func (h *EventHandler) OnDisconnect(c *neffos.NSConn, msg neffos.Message) error {
	h.mu.Lock()
	sess := h.sessions[c.Conn]
	delete(h.sessions, c.Conn)
	h.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
	logging.LogDebug("[Events] 客户端断开", "conn", c.Conn.ID())
	return nil
}

// OnStart 开始播放，已在播放时忽略
func (h *EventHandler) OnStart(c *neffos.NSConn, msg neffos.Message) error {
	if h.session(c) != nil {
		return nil
	}
	remote := c.Conn.ID()
	if req := c.Conn.Socket().Request(); req != nil {
		remote = req.RemoteAddr
	}
	engine := h.srv.NewEngine(&emitSink{c: c})
	sess := server.NewSession(server.TransportEvents, remote, engine, nil)
	sess.Start(context.Background())

	// 启动之后才登记，断开事件拿到的会话总是可以 Close
	h.mu.Lock()
	if _, ok := h.sessions[c.Conn]; ok || c.Conn.IsClosed() {
		h.mu.Unlock()
		sess.Close()
		return nil
	}
	h.sessions[c.Conn] = sess
	h.mu.Unlock()

	registry := h.srv.Sessions()
	registry.Add(sess)
	logging.LogInfo("[Events] 开始播放", "id", sess.ID, "remote", remote)

	go func() {
		sess.Wait()
		registry.Remove(sess.ID)

		h.mu.Lock()
		if h.sessions[c.Conn] == sess {
			delete(h.sessions, c.Conn)
		}
		h.mu.Unlock()

		if !c.Conn.IsClosed() {
			c.Emit("ended", nil)
		}
		logging.LogInfo("[Events] 播放结束", "id", sess.ID, "frames", sess.Engine().Snapshot().FramesSent)
	}()
	return nil
}

// OnToggle 暂停/继续
func (h *EventHandler) OnToggle(c *neffos.NSConn, msg neffos.Message) error {
	return h.send(c, player.Toggle())
}

// OnSkip 跳转，step 为 0 时使用配置的步长
func (h *EventHandler) OnSkip(c *neffos.NSConn, msg neffos.Message) error {
	var req struct {
		Step int `json:"step"`
	}
	if len(msg.Body) > 0 {
		if err := msg.Unmarshal(&req); err != nil {
			return err
		}
	}
	if req.Step == 0 {
		req.Step = h.srv.Config().SkipStep
	}
	return h.send(c, player.SkipBy(req.Step))
}

// OnQuit 结束播放，连接保持
func (h *EventHandler) OnQuit(c *neffos.NSConn, msg neffos.Message) error {
	return h.send(c, player.Quit())
}

// OnState 回复当前播放状态
func (h *EventHandler) OnState(c *neffos.NSConn, msg neffos.Message) error {
	sess := h.session(c)
	if sess == nil {
		return errNotStarted
	}
	data, err := json.Marshal(sess.Info())
	if err != nil {
		return err
	}
	c.Emit("state", data)
	return nil
}

func (h *EventHandler) send(c *neffos.NSConn, cmd player.Command) error {
	sess := h.session(c)
	if sess == nil {
		return errNotStarted
	}
	sess.Engine().Send(cmd)
	return nil
}

// RegisterEvents 注册 WebSocket 事件
func (h *EventHandler) RegisterEvents() websocket.Namespaces {
	return websocket.Namespaces{
		Namespace: websocket.Events{
			websocket.OnNamespaceConnected:  h.OnConnect,
			websocket.OnNamespaceDisconnect: h.OnDisconnect,
			"start":                         h.OnStart,
			"toggle":                        h.OnToggle,
			"skip":                          h.OnSkip,
			"quit":                          h.OnQuit,
			"state":                         h.OnState,
		},
	}
}

// Mount 挂载到 /api/v1/events，返回的 neffos 服务需在退出时关闭
func (h *EventHandler) Mount(app *iris.Application) *neffos.Server {
	ws := websocket.New(websocket.DefaultGorillaUpgrader, h.RegisterEvents())
	app.Get("/api/v1/events", websocket.Handler(ws))
	return ws
}
