package database

import (
	"bytes"
	"runtime"
	"strconv"

	"raftis/config"
	"raftis/interface/redis"
	"raftis/protocol"
)

// ******************** PING ********************

type pingCmd struct {
	*BaseCmd
}

func newPingCmd() *pingCmd {
	return &pingCmd{
		BaseCmd: NewBaseCmd("ping", -1, FlagFast, AclCategoryConnection),
	}
}

func (cmd *pingCmd) DoInitial(c redis.Connection) bool {
	return true
}

func (cmd *pingCmd) DoCmd(c redis.Connection) {
	argv := c.Argv()
	if len(argv) == 1 {
		c.SetRes(&protocol.PongReply{})
	} else if len(argv) == 2 {
		c.SetRes(protocol.MakeBulkReply(argv[1]))
	} else {
		c.SetRes(protocol.MakeArgNumErrReply(cmd.Name()))
	}
}

// ******************** AUTH ********************

type authCmd struct {
	*BaseCmd
}

func newAuthCmd() *authCmd {
	return &authCmd{
		BaseCmd: NewBaseCmd("auth", 2, FlagFast, AclCategoryConnection),
	}
}

func (cmd *authCmd) DoInitial(c redis.Connection) bool {
	if config.Properties.RequirePass == "" {
		c.SetRes(protocol.MakeErrReply("ERR Client sent AUTH, but no password is set"))
		return false
	}
	return true
}

func (cmd *authCmd) DoCmd(c redis.Connection) {
	password := string(c.Argv()[1])
	c.SetPassword(password)
	if password != config.Properties.RequirePass {
		c.SetRes(protocol.MakeErrReply("ERR invalid password"))
		return
	}
	c.SetRes(protocol.MakeOkReply())
}

// ******************** SELECT ********************

type selectCmd struct {
	*BaseCmd
	server *Server
}

func newSelectCmd(server *Server) *selectCmd {
	return &selectCmd{
		BaseCmd: NewBaseCmd("select", 2, FlagFast, AclCategoryConnection),
		server:  server,
	}
}

func (cmd *selectCmd) DoInitial(c redis.Connection) bool {
	index, err := strconv.Atoi(string(c.Argv()[1]))
	if err != nil {
		c.SetRes(protocol.MakeErrReply("ERR value is not an integer or out of range"))
		return false
	}
	if cmd.server.selectBackend(index) == nil {
		c.SetRes(protocol.MakeErrReply("ERR DB index is out of range"))
		return false
	}
	return true
}

func (cmd *selectCmd) DoCmd(c redis.Connection) {
	index, _ := strconv.Atoi(string(c.Argv()[1]))
	c.SelectDB(index)
	c.SetRes(protocol.MakeOkReply())
}

// ******************** INFO ********************

type infoCmd struct {
	*BaseCmd
	server *Server
}

func newInfoCmd(server *Server) *infoCmd {
	return &infoCmd{
		BaseCmd: NewBaseCmd("info", -1, FlagAdmin, AclCategoryAdmin),
		server:  server,
	}
}

func (cmd *infoCmd) DoInitial(c redis.Connection) bool {
	return true
}

func (cmd *infoCmd) DoCmd(c redis.Connection) {
	var buf bytes.Buffer
	buf.WriteString("# Server\r\n")
	buf.WriteString("os:" + runtime.GOOS + "\r\n")
	buf.WriteString("arch_bits:" + strconv.Itoa(strconv.IntSize) + "\r\n")
	buf.WriteString("tcp_port:" + strconv.Itoa(config.Properties.Port) + "\r\n")
	buf.WriteString("databases:" + strconv.Itoa(config.Properties.Databases) + "\r\n")

	buf.WriteString("# Raft\r\n")
	if config.Properties.UseRaft && cmd.server.raft != nil {
		buf.WriteString("raft_state:" + cmd.server.raft.State() + "\r\n")
		buf.WriteString("raft_leader:" + cmd.server.raft.GetLeaderAddress() + "\r\n")
	} else {
		buf.WriteString("raft_state:disabled\r\n")
	}

	buf.WriteString("# Keyspace\r\n")
	for i, backend := range cmd.server.dbSet {
		if size := backend.Len(); size > 0 {
			buf.WriteString("db" + strconv.Itoa(i) + ":keys=" + strconv.Itoa(size) + "\r\n")
		}
	}
	c.SetRes(protocol.MakeBulkReply(buf.Bytes()))
}

// ******************** COMMAND ********************

type commandCmd struct {
	*BaseCmd
	server *Server
}

func newCommandCmd(server *Server) *commandCmd {
	return &commandCmd{
		BaseCmd: NewBaseCmd("command", -1, FlagReadonly, AclCategoryConnection),
		server:  server,
	}
}

func (cmd *commandCmd) DoInitial(c redis.Connection) bool {
	return true
}

func flagNames(cmd Command) [][]byte {
	var names [][]byte
	if cmd.HasFlag(FlagWrite) {
		names = append(names, []byte("write"))
	}
	if cmd.HasFlag(FlagReadonly) {
		names = append(names, []byte("readonly"))
	}
	if cmd.HasFlag(FlagExclusive) {
		names = append(names, []byte("exclusive"))
	}
	if cmd.HasFlag(FlagAdmin) {
		names = append(names, []byte("admin"))
	}
	if cmd.HasFlag(FlagFast) {
		names = append(names, []byte("fast"))
	}
	return names
}

// DoCmd 按命令表输出每条命令的名称、参数约定、标志位与身份编号
func (cmd *commandCmd) DoCmd(c redis.Connection) {
	replies := make([]redis.Reply, 0, len(cmd.server.cmds))
	for _, entry := range cmd.server.cmds {
		row := []redis.Reply{
			protocol.MakeBulkReply([]byte(entry.Name())),
			protocol.MakeIntReply(int64(entry.Arity())),
			protocol.MakeMultiBulkReply(flagNames(entry)),
			protocol.MakeIntReply(int64(entry.CmdID())),
		}
		replies = append(replies, protocol.MakeMultiRawReply(row))
	}
	c.SetRes(protocol.MakeMultiRawReply(replies))
}

// ******************** FLUSHDB ********************

type flushDBCmd struct {
	*BaseCmd
	server *Server
}

func newFlushDBCmd(server *Server) *flushDBCmd {
	return &flushDBCmd{
		BaseCmd: NewBaseCmd("flushdb", -1, FlagWrite|FlagExclusive|FlagAdmin, AclCategoryWrite|AclCategoryKeyspace|AclCategoryAdmin),
		server:  server,
	}
}

func (cmd *flushDBCmd) DoInitial(c redis.Connection) bool {
	return true
}

// DoCmd 带排他标志的命令不经过调度层的共享锁，
// 在这里自行取独占锁，保证清空期间没有其他命令在执行
func (cmd *flushDBCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	backend.LockExclusive()
	backend.Flush()
	backend.UnLockExclusive()
	c.SetRes(protocol.MakeOkReply())
	cmd.server.afterWrite(c.GetDBIndex(), c.Argv())
}

// ******************** CONFIG ********************

type configGetCmd struct {
	*BaseCmd
}

func (cmd *configGetCmd) DoInitial(c redis.Connection) bool {
	if len(c.Argv()) != 3 {
		c.SetRes(protocol.MakeArgNumErrReply("config|get"))
		return false
	}
	return true
}

func (cmd *configGetCmd) DoCmd(c redis.Connection) {
	name := string(c.Argv()[2])
	value, ok := config.Get(name)
	if !ok {
		c.SetRes(protocol.MakeEmptyMultiBulkReply())
		return
	}
	c.SetRes(protocol.MakeMultiBulkReply([][]byte{[]byte(name), []byte(value)}))
}

type configSetCmd struct {
	*BaseCmd
}

func (cmd *configSetCmd) DoInitial(c redis.Connection) bool {
	if len(c.Argv()) != 4 {
		c.SetRes(protocol.MakeArgNumErrReply("config|set"))
		return false
	}
	return true
}

func (cmd *configSetCmd) DoCmd(c redis.Connection) {
	name := string(c.Argv()[2])
	value := string(c.Argv()[3])
	if !config.Set(name, value) {
		c.SetRes(protocol.MakeErrReply("ERR Unknown option or number of arguments for CONFIG SET - '" + name + "'"))
		return
	}
	c.SetRes(protocol.MakeOkReply())
}

func newConfigCmd() *CmdGroup {
	group := NewCmdGroup("config", FlagAdmin)
	group.AddAclCategory(AclCategoryAdmin)
	group.AddSubCmd(&configGetCmd{BaseCmd: NewBaseCmd("get", 3, FlagAdmin, AclCategoryAdmin)})
	group.AddSubCmd(&configSetCmd{BaseCmd: NewBaseCmd("set", 4, FlagAdmin, AclCategoryAdmin)})
	return group
}

// ******************** RAFT ********************

type raftJoinCmd struct {
	*BaseCmd
	server *Server
}

func (cmd *raftJoinCmd) DoInitial(c redis.Connection) bool {
	if len(c.Argv()) != 4 {
		c.SetRes(protocol.MakeArgNumErrReply("raft|join"))
		return false
	}
	if cmd.server.raft == nil || !cmd.server.raft.IsInitialized() {
		c.SetRes(&protocol.RaftNotInitErrReply{})
		return false
	}
	return true
}

// DoCmd 新节点加入集群：第一个参数是它对客户端公布的服务地址，
// 充当节点身份；第二个参数是它的 raft 内部通信地址
func (cmd *raftJoinCmd) DoCmd(c redis.Connection) {
	id := string(c.Argv()[2])
	addr := string(c.Argv()[3])
	if err := cmd.server.raft.Join(id, addr); err != nil {
		c.SetRes(protocol.MakeErrReply("ERR " + err.Error()))
		return
	}
	c.SetRes(protocol.MakeOkReply())
}

type raftInfoCmd struct {
	*BaseCmd
	server *Server
}

func (cmd *raftInfoCmd) DoInitial(c redis.Connection) bool {
	if cmd.server.raft == nil || !cmd.server.raft.IsInitialized() {
		c.SetRes(&protocol.RaftNotInitErrReply{})
		return false
	}
	return true
}

func (cmd *raftInfoCmd) DoCmd(c redis.Connection) {
	node := cmd.server.raft
	c.SetRes(protocol.MakeMultiBulkReply([][]byte{
		[]byte("state"),
		[]byte(node.State()),
		[]byte("leader"),
		[]byte(node.GetLeaderAddress()),
	}))
}

func newRaftCmd(server *Server) *CmdGroup {
	group := NewCmdGroup("raft", FlagAdmin)
	group.AddAclCategory(AclCategoryAdmin)
	group.AddSubCmd(&raftJoinCmd{
		BaseCmd: NewBaseCmd("join", 4, FlagAdmin, AclCategoryAdmin),
		server:  server,
	})
	group.AddSubCmd(&raftInfoCmd{
		BaseCmd: NewBaseCmd("info", 2, FlagAdmin, AclCategoryAdmin),
		server:  server,
	})
	return group
}
