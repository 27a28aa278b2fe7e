package database

import (
	"fmt"
	"runtime/debug"
	"strings"

	"raftis/aof"
	"raftis/config"
	"raftis/interface/redis"
	"raftis/lib/logger"
	"raftis/protocol"
	"raftis/redis/connection"
	"raftis/storage"
)

// Consensus 是共识子系统暴露给调度层的能力：
// 领导权查询用于一致性路由，Propose 用于复制写命令
type Consensus interface {
	IsInitialized() bool
	IsLeader() bool
	GetLeaderAddress() string
	ProposeCmdLine(dbIndex int, cmdLine CmdLine) error
	Join(id string, addr string) error
	State() string
}

// Server 是命令调度的核心：持有各数据库后端、命令表、
// 阻塞客户端登记表，以及可选的持久化器和 raft 节点
type Server struct {
	dbSet     []*storage.Backend
	cmds      map[string]Command
	blocked   *blockedManager
	raft      Consensus
	persister *aof.Persister
}

func NewServer() *Server {
	if config.Properties.Databases <= 0 {
		config.Properties.Databases = 16
	}
	server := &Server{
		dbSet:   make([]*storage.Backend, config.Properties.Databases),
		cmds:    make(map[string]Command),
		blocked: newBlockedManager(),
	}
	for i := range server.dbSet {
		server.dbSet[i] = storage.NewBackend(i)
	}
	server.initCmdTable()
	return server
}

// SetRaftNode 绑定共识节点，此后读写命令经过一致性路由
func (server *Server) SetRaftNode(node Consensus) {
	server.raft = node
}

// SetupPersister 按配置启用 AOF 持久化，并在启动时重放历史命令
func (server *Server) SetupPersister() error {
	if !config.Properties.AppendOnly {
		return nil
	}
	persister, err := aof.NewPersister(
		config.Properties.Dir+"/"+config.Properties.AppendFilename,
		config.Properties.AppendFsync,
		server.execReplay,
	)
	if err != nil {
		return err
	}
	server.persister = persister
	persister.LoadAof()
	return nil
}

// Exec 是每条已解析请求的入口：鉴权、查表、校验参数个数，
// 然后进入调度管线，最后冲刷回复缓冲
func (server *Server) Exec(c redis.Connection, cmdLine CmdLine) {
	defer func() {
		if err := recover(); err != nil {
			logger.Warn(fmt.Sprintf("error occurs: %v\n%s", err, string(debug.Stack())))
			c.SetRes(&protocol.UnknownErrReply{})
			_ = c.SendPacket()
		}
	}()
	if len(cmdLine) == 0 {
		return
	}
	c.SetArgv(cmdLine)
	name := c.CmdName()

	if name != "auth" && name != "ping" && !isAuthenticated(c) {
		c.SetRes(protocol.MakeErrReply("NOAUTH Authentication required"))
		_ = c.SendPacket()
		return
	}

	cmd, ok := server.cmds[name]
	if !ok {
		c.SetRes(protocol.MakeErrReply("ERR unknown command '" + name + "'"))
		_ = c.SendPacket()
		return
	}
	if !cmd.CheckArg(len(cmdLine)) {
		c.SetRes(protocol.MakeArgNumErrReply(name))
		_ = c.SendPacket()
		return
	}

	server.execute(cmd, c, false)
	_ = c.SendPacket()
}

// execReplay 重放一条写命令（AOF 加载或 raft 日志应用），
// 跳过一致性路由，不产生对外回复
func (server *Server) execReplay(dbIndex int, cmdLine CmdLine) {
	c := connection.NewFakeConn()
	c.SelectDB(dbIndex)
	c.SetArgv(cmdLine)
	cmd, ok := server.cmds[c.CmdName()]
	if !ok || !cmd.CheckArg(len(cmdLine)) {
		logger.Warnf("skip illegal cmdline in replay: %q", c.CmdName())
		return
	}
	server.execute(cmd, c, true)
}

// ApplyCmdLine 应用一条来自 raft 日志的写命令，走重放路径
func (server *Server) ApplyCmdLine(dbIndex int, cmdLine [][]byte) {
	server.execReplay(dbIndex, cmdLine)
}

// afterWrite 在写命令成功修改存储后调用：
// 追加 AOF，并在本节点为 leader 时把命令提交到 raft 日志
func (server *Server) afterWrite(dbIndex int, cmdLine CmdLine) {
	if server.persister != nil {
		server.persister.SaveCmdLine(dbIndex, cmdLine)
	}
	if config.Properties.UseRaft && server.raft != nil && server.raft.IsLeader() {
		if err := server.raft.ProposeCmdLine(dbIndex, cmdLine); err != nil {
			logger.Warnf("propose cmdline failed: %v", err)
		}
	}
}

func (server *Server) selectBackend(index int) *storage.Backend {
	if index < 0 || index >= len(server.dbSet) {
		return nil
	}
	return server.dbSet[index]
}

func isAuthenticated(c redis.Connection) bool {
	if config.Properties.RequirePass == "" {
		return true
	}
	return c.GetPassword() == config.Properties.RequirePass
}

// AfterClientClose 在连接关闭后清理它在所有等待队列里的登记
func (server *Server) AfterClientClose(c redis.Connection) {
	server.blocked.removeConn(c)
}

func (server *Server) Close() {
	if server.persister != nil {
		server.persister.Close()
	}
}

// ******************** 命令表 ********************

func (server *Server) registerCommand(cmd Command) {
	server.cmds[strings.ToLower(cmd.Name())] = cmd
}

func (server *Server) initCmdTable() {
	// connection / admin
	server.registerCommand(newPingCmd())
	server.registerCommand(newAuthCmd())
	server.registerCommand(newSelectCmd(server))
	server.registerCommand(newInfoCmd(server))
	server.registerCommand(newCommandCmd(server))
	server.registerCommand(newFlushDBCmd(server))
	server.registerCommand(newConfigCmd())
	server.registerCommand(newRaftCmd(server))

	// strings
	server.registerCommand(newGetCmd(server))
	server.registerCommand(newSetCmd(server))

	// keyspace
	server.registerCommand(newDelCmd(server))
	server.registerCommand(newExistsCmd(server))

	// lists
	server.registerCommand(newLPushCmd(server))
	server.registerCommand(newRPushCmd(server))
	server.registerCommand(newLPopCmd(server))
	server.registerCommand(newRPopCmd(server))
	server.registerCommand(newLLenCmd(server))
	server.registerCommand(newLRangeCmd(server))
	server.registerCommand(newBLPopCmd(server))
	server.registerCommand(newBRPopCmd(server))
}
