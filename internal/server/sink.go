package server

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connSink 把帧写入 TCP 连接
// 每帧写完即 flush，带写超时，卡住的客户端不会永久占用协程。
type connSink struct {
	conn    net.Conn
	w       *bufio.Writer
	timeout time.Duration
}

func newConnSink(conn net.Conn, timeout time.Duration) *connSink {
	return &connSink{conn: conn, w: bufio.NewWriterSize(conn, 8*1024), timeout: timeout}
}

func (s *connSink) WriteFrame(p []byte) error {
	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return err
		}
	}
	if _, err := s.w.Write(p); err != nil {
		return err
	}
	return s.w.Flush()
}

// wsSink 把帧作为二进制消息写入 WebSocket
type wsSink struct {
	ws      *websocket.Conn
	mu      sync.Mutex
	timeout time.Duration
}

func (s *wsSink) WriteFrame(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeout > 0 {
		s.ws.SetWriteDeadline(time.Now().Add(s.timeout))
	}
	return s.ws.WriteMessage(websocket.BinaryMessage, p)
}
