// Package server 实现 RESP 协议层的连接处理器：
// 解析客户端请求流，交给数据库实例执行
package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"raftis/database"
	"raftis/lib/logger"
	"raftis/parser"
	"raftis/protocol"
	"raftis/redis/connection"
)

// Handler 把 TCP 连接封装为 redis 会话
type Handler struct {
	activeConn sync.Map // *connection.Connection -> struct{}
	db         *database.Server
	closing    atomic.Bool
}

func MakeHandler(db *database.Server) *Handler {
	return &Handler{
		db: db,
	}
}

func (h *Handler) closeClient(client *connection.Connection) {
	_ = client.Close()
	h.db.AfterClientClose(client)
	h.activeConn.Delete(client)
}

// Handle 处理单个连接的完整生命周期
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	if h.closing.Load() {
		_ = conn.Close()
		return
	}
	client := connection.NewConn(conn)
	h.activeConn.Store(client, struct{}{})

	ch := parser.ParseStream(conn)
	for payload := range ch {
		if payload.Err != nil {
			if payload.Err == io.EOF ||
				payload.Err == io.ErrUnexpectedEOF ||
				strings.Contains(payload.Err.Error(), "use of closed network connection") {
				h.closeClient(client)
				logger.Debugf("connection closed: %s", client.RemoteAddr())
				return
			}
			// 协议错误，回复后继续读下一条
			errReply := protocol.MakeErrReply(payload.Err.Error())
			if _, err := client.Write(errReply.ToBytes()); err != nil {
				h.closeClient(client)
				logger.Debugf("connection closed: %s", client.RemoteAddr())
				return
			}
			continue
		}
		if payload.Data == nil {
			logger.Debug("empty payload")
			continue
		}
		reply, ok := payload.Data.(*protocol.MultiBulkReply)
		if !ok {
			logger.Debug("require multi bulk protocol")
			continue
		}
		h.db.Exec(client, reply.Args)
	}
}

// Close 关闭全部活跃连接和数据库实例
func (h *Handler) Close() error {
	logger.Info("handler shutting down...")
	h.closing.Store(true)
	h.activeConn.Range(func(key interface{}, _ interface{}) bool {
		client := key.(*connection.Connection)
		_ = client.Close()
		h.db.AfterClientClose(client)
		return true
	})
	h.db.Close()
	return nil
}
