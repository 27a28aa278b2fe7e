package database

import (
	"strconv"
	"time"

	"raftis/interface/redis"
	"raftis/protocol"
	"raftis/storage"
)

// ******************** LPUSH / RPUSH ********************

type pushCmd struct {
	*BaseCmd
	server *Server
	left   bool
}

func newLPushCmd(server *Server) *pushCmd {
	return &pushCmd{
		BaseCmd: NewBaseCmd("lpush", -3, FlagWrite, AclCategoryWrite|AclCategoryList),
		server:  server,
		left:    true,
	}
}

func newRPushCmd(server *Server) *pushCmd {
	return &pushCmd{
		BaseCmd: NewBaseCmd("rpush", -3, FlagWrite, AclCategoryWrite|AclCategoryList),
		server:  server,
		left:    false,
	}
}

func (cmd *pushCmd) DoInitial(c redis.Connection) bool {
	c.SetKey(string(c.Argv()[1]))
	return true
}

// DoCmd 写入成功后唤醒等待该键的阻塞连接，
// 唤醒动作必须在本命令进入复制流之后，保持日志顺序与执行顺序一致
func (cmd *pushCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	var length int
	var status storage.Status
	if cmd.left {
		length, status = backend.LPush(c.Key(), c.Argv()[2:]...)
	} else {
		length, status = backend.RPush(c.Key(), c.Argv()[2:]...)
	}
	if !status.OK() {
		c.SetRes(protocol.MakeErrReply(status.String()))
		return
	}
	c.SetRes(protocol.MakeIntReply(int64(length)))
	cmd.server.afterWrite(c.GetDBIndex(), c.Argv())
	cmd.server.ServeAndUnblockConns(c)
}

// ******************** LPOP / RPOP ********************

type popCmd struct {
	*BaseCmd
	server *Server
	left   bool
}

func newLPopCmd(server *Server) *popCmd {
	return &popCmd{
		BaseCmd: NewBaseCmd("lpop", -2, FlagWrite, AclCategoryWrite|AclCategoryList),
		server:  server,
		left:    true,
	}
}

func newRPopCmd(server *Server) *popCmd {
	return &popCmd{
		BaseCmd: NewBaseCmd("rpop", -2, FlagWrite, AclCategoryWrite|AclCategoryList),
		server:  server,
		left:    false,
	}
}

func (cmd *popCmd) DoInitial(c redis.Connection) bool {
	argv := c.Argv()
	if len(argv) > 3 {
		c.SetRes(protocol.MakeArgNumErrReply(cmd.Name()))
		return false
	}
	if len(argv) == 3 {
		count, err := strconv.Atoi(string(argv[2]))
		if err != nil || count < 0 {
			c.SetRes(protocol.MakeErrReply("ERR value is out of range, must be positive"))
			return false
		}
	}
	c.SetKey(string(argv[1]))
	return true
}

func (cmd *popCmd) DoCmd(c redis.Connection) {
	argv := c.Argv()
	withCount := len(argv) == 3
	count := 1
	if withCount {
		count, _ = strconv.Atoi(string(argv[2]))
	}

	backend := cmd.server.selectBackend(c.GetDBIndex())
	var values [][]byte
	var status storage.Status
	if cmd.left {
		values, status = backend.LPop(c.Key(), count)
	} else {
		values, status = backend.RPop(c.Key(), count)
	}
	if status.IsNotFound() {
		if withCount {
			c.SetRes(protocol.MakeNullMultiBulkReply())
		} else {
			c.SetRes(protocol.MakeNullBulkReply())
		}
		return
	}
	if !status.OK() {
		c.SetRes(protocol.MakeErrReply(status.String()))
		return
	}
	if withCount {
		c.SetRes(protocol.MakeMultiBulkReply(values))
	} else {
		c.SetRes(protocol.MakeBulkReply(values[0]))
	}
	if len(values) > 0 {
		cmd.server.afterWrite(c.GetDBIndex(), c.Argv())
	}
}

// ******************** LLEN ********************

type lLenCmd struct {
	*BaseCmd
	server *Server
}

func newLLenCmd(server *Server) *lLenCmd {
	return &lLenCmd{
		BaseCmd: NewBaseCmd("llen", 2, FlagReadonly|FlagFast, AclCategoryRead|AclCategoryList),
		server:  server,
	}
}

func (cmd *lLenCmd) DoInitial(c redis.Connection) bool {
	c.SetKey(string(c.Argv()[1]))
	return true
}

func (cmd *lLenCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	length, status := backend.LLen(c.Key())
	if status.IsNotFound() {
		c.SetRes(protocol.MakeIntReply(0))
		return
	}
	if !status.OK() {
		c.SetRes(protocol.MakeErrReply(status.String()))
		return
	}
	c.SetRes(protocol.MakeIntReply(int64(length)))
}

// ******************** LRANGE ********************

type lRangeCmd struct {
	*BaseCmd
	server *Server
}

func newLRangeCmd(server *Server) *lRangeCmd {
	return &lRangeCmd{
		BaseCmd: NewBaseCmd("lrange", 4, FlagReadonly, AclCategoryRead|AclCategoryList),
		server:  server,
	}
}

func (cmd *lRangeCmd) DoInitial(c redis.Connection) bool {
	argv := c.Argv()
	if _, err := strconv.Atoi(string(argv[2])); err != nil {
		c.SetRes(protocol.MakeErrReply("ERR value is not an integer or out of range"))
		return false
	}
	if _, err := strconv.Atoi(string(argv[3])); err != nil {
		c.SetRes(protocol.MakeErrReply("ERR value is not an integer or out of range"))
		return false
	}
	c.SetKey(string(argv[1]))
	return true
}

func (cmd *lRangeCmd) DoCmd(c redis.Connection) {
	argv := c.Argv()
	start, _ := strconv.Atoi(string(argv[2]))
	stop, _ := strconv.Atoi(string(argv[3]))

	backend := cmd.server.selectBackend(c.GetDBIndex())
	values, status := backend.LRange(c.Key(), start, stop)
	if status.IsNotFound() {
		c.SetRes(protocol.MakeEmptyMultiBulkReply())
		return
	}
	if !status.OK() {
		c.SetRes(protocol.MakeErrReply(status.String()))
		return
	}
	if len(values) == 0 {
		c.SetRes(protocol.MakeEmptyMultiBulkReply())
		return
	}
	c.SetRes(protocol.MakeMultiBulkReply(values))
}

// ******************** BLPOP / BRPOP ********************

type blockingPopCmd struct {
	*BaseCmd
	server *Server
	left   bool
}

func newBLPopCmd(server *Server) *blockingPopCmd {
	return &blockingPopCmd{
		BaseCmd: NewBaseCmd("blpop", 3, FlagWrite, AclCategoryWrite|AclCategoryList|AclCategoryBlocking),
		server:  server,
		left:    true,
	}
}

func newBRPopCmd(server *Server) *blockingPopCmd {
	return &blockingPopCmd{
		BaseCmd: NewBaseCmd("brpop", 3, FlagWrite, AclCategoryWrite|AclCategoryList|AclCategoryBlocking),
		server:  server,
		left:    false,
	}
}

func (cmd *blockingPopCmd) DoInitial(c redis.Connection) bool {
	argv := c.Argv()
	timeout, err := strconv.ParseFloat(string(argv[2]), 64)
	if err != nil || timeout < 0 {
		c.SetRes(protocol.MakeErrReply("ERR timeout is not a float or out of range"))
		return false
	}
	c.SetKey(string(argv[1]))
	return true
}

// DoCmd 键上有数据时立即弹出返回；没有数据时把连接挂入等待队列，
// 不写任何回复，由后续的写入或超时清扫来唤醒
func (cmd *blockingPopCmd) DoCmd(c redis.Connection) {
	timeout, _ := strconv.ParseFloat(string(c.Argv()[2]), 64)

	backend := cmd.server.selectBackend(c.GetDBIndex())
	var values [][]byte
	var status storage.Status
	if cmd.left {
		values, status = backend.LPop(c.Key(), 1)
	} else {
		values, status = backend.RPop(c.Key(), 1)
	}
	if status.OK() {
		c.AppendArrayLen(2)
		c.AppendString(c.Key())
		c.AppendString(string(values[0]))
		popName := "lpop"
		if !cmd.left {
			popName = "rpop"
		}
		cmd.server.afterWrite(c.GetDBIndex(), [][]byte{[]byte(popName), []byte(c.Key())})
		return
	}
	if status.IsNotFound() {
		cmd.server.blockClient(c, c.Key(), time.Duration(timeout*float64(time.Second)))
		return
	}
	c.SetRes(protocol.MakeErrReply(status.String()))
}
