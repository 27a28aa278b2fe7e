package database

import (
	"raftis/interface/redis"
	"raftis/protocol"
)

type getCmd struct {
	*BaseCmd
	server *Server
}

func newGetCmd(server *Server) *getCmd {
	return &getCmd{
		BaseCmd: NewBaseCmd("get", 2, FlagReadonly|FlagFast, AclCategoryRead|AclCategoryString),
		server:  server,
	}
}

func (cmd *getCmd) DoInitial(c redis.Connection) bool {
	c.SetKey(string(c.Argv()[1]))
	return true
}

func (cmd *getCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	value, status := backend.Get(c.Key())
	if status.IsNotFound() {
		c.SetRes(protocol.MakeNullBulkReply())
		return
	}
	if !status.OK() {
		c.SetRes(protocol.MakeErrReply(status.String()))
		return
	}
	c.SetRes(protocol.MakeBulkReply(value))
}

type setCmd struct {
	*BaseCmd
	server *Server
}

func newSetCmd(server *Server) *setCmd {
	return &setCmd{
		BaseCmd: NewBaseCmd("set", 3, FlagWrite, AclCategoryWrite|AclCategoryString),
		server:  server,
	}
}

func (cmd *setCmd) DoInitial(c redis.Connection) bool {
	c.SetKey(string(c.Argv()[1]))
	return true
}

func (cmd *setCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	status := backend.Set(c.Key(), c.Argv()[2])
	if !status.OK() {
		c.SetRes(protocol.MakeErrReply(status.String()))
		return
	}
	c.SetRes(protocol.MakeOkReply())
	cmd.server.afterWrite(c.GetDBIndex(), c.Argv())
}
