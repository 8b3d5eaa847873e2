package server

import (
	"github.com/kataras/iris/v12"
)

// Handlers HTTP API 处理器
type Handlers struct {
	srv *Server
}

// NewHandlers 创建处理器
func NewHandlers(srv *Server) *Handlers {
	return &Handlers{srv: srv}
}

// GetStatus 服务与数据集状态
// GET /api/v1/status
func (h *Handlers) GetStatus(ctx iris.Context) {
	ctx.JSON(h.srv.Status())
}

// GetSessions 在线会话列表
// GET /api/v1/sessions
func (h *Handlers) GetSessions(ctx iris.Context) {
	ctx.JSON(iris.Map{
		"sessions": h.srv.Sessions().List(),
	})
}

// GetSession 单个会话
// GET /api/v1/sessions/{id}
func (h *Handlers) GetSession(ctx iris.Context) {
	sess, ok := h.srv.Sessions().Get(ctx.Params().Get("id"))
	if !ok {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "session not found"})
		return
	}
	ctx.JSON(sess.Info())
}

// KickSession 断开会话
// DELETE /api/v1/sessions/{id}
func (h *Handlers) KickSession(ctx iris.Context) {
	sess, ok := h.srv.Sessions().Get(ctx.Params().Get("id"))
	if !ok {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "session not found"})
		return
	}
	sess.Close()
	ctx.JSON(iris.Map{"success": true, "id": sess.ID})
}

// GetBindings 按键映射
// GET /api/v1/bindings
func (h *Handlers) GetBindings(ctx iris.Context) {
	type binding struct {
		Seq  string `json:"seq"`
		Cmd  string `json:"cmd"`
		Step int    `json:"step"`
	}

	var out []binding
	for _, b := range h.srv.Interpreter().Bindings() {
		out = append(out, binding{Seq: b.Seq, Cmd: b.Cmd.Kind.String(), Step: b.Cmd.Step})
	}
	ctx.JSON(iris.Map{
		"bindings": out,
		"toggle":   " ",
		"quit":     []string{"q", "Q", "\x03"},
	})
}

// RegisterRoutes 注册路由
func RegisterRoutes(app *iris.Application, h *Handlers) {
	v1 := app.Party("/api/v1")
	{
		v1.Get("/status", h.GetStatus)
		v1.Get("/bindings", h.GetBindings)
		v1.Get("/sessions", h.GetSessions)
		v1.Get("/sessions/{id}", h.GetSession)
		v1.Delete("/sessions/{id}", h.KickSession)
		v1.Get("/stream", h.HandleWebSocket) // WebSocket 终端
	}
}
