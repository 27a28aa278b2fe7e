package database

import (
	"raftis/interface/redis"
	"raftis/protocol"
)

type delCmd struct {
	*BaseCmd
	server *Server
}

func newDelCmd(server *Server) *delCmd {
	return &delCmd{
		BaseCmd: NewBaseCmd("del", -2, FlagWrite, AclCategoryWrite|AclCategoryKeyspace),
		server:  server,
	}
}

func (cmd *delCmd) DoInitial(c redis.Connection) bool {
	c.SetKey(string(c.Argv()[1]))
	return true
}

func (cmd *delCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	keys := make([]string, 0, len(c.Argv())-1)
	for _, raw := range c.Argv()[1:] {
		keys = append(keys, string(raw))
	}
	deleted := backend.Del(keys...)
	c.SetRes(protocol.MakeIntReply(int64(deleted)))
	if deleted > 0 {
		cmd.server.afterWrite(c.GetDBIndex(), c.Argv())
	}
}

type existsCmd struct {
	*BaseCmd
	server *Server
}

func newExistsCmd(server *Server) *existsCmd {
	return &existsCmd{
		BaseCmd: NewBaseCmd("exists", -2, FlagReadonly|FlagFast, AclCategoryRead|AclCategoryKeyspace),
		server:  server,
	}
}

func (cmd *existsCmd) DoInitial(c redis.Connection) bool {
	c.SetKey(string(c.Argv()[1]))
	return true
}

func (cmd *existsCmd) DoCmd(c redis.Connection) {
	backend := cmd.server.selectBackend(c.GetDBIndex())
	keys := make([]string, 0, len(c.Argv())-1)
	for _, raw := range c.Argv()[1:] {
		keys = append(keys, string(raw))
	}
	c.SetRes(protocol.MakeIntReply(int64(backend.Exists(keys...))))
}
