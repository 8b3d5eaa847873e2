package server

import (
	"net/http"

	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/telnet"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWebSocket 浏览器终端接入
// 二进制消息下发帧数据，客户端发来的消息按原始按键解释，不做 telnet 过滤。
func (h *Handlers) HandleWebSocket(ctx iris.Context) {
	ws, err := upgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
	if err != nil {
		logging.LogWarn("[WS] 升级失败", "error", err)
		return
	}

	sink := &wsSink{ws: ws, timeout: h.srv.cfg.WriteTimeout}
	sess := NewSession(TransportWebSocket, ctx.RemoteAddr(), h.srv.NewEngine(sink), ws)

	read := func() ([]byte, error) {
		_, message, err := ws.ReadMessage()
		if err != nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			logging.LogDebug("[WS] 读取错误", "id", sess.ID, "error", err)
		}
		return message, err
	}

	h.srv.run(ctx.Request().Context(), sess, read, telnet.Decode)
}
