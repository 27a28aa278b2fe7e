package protocol

type UnknownErrReply struct{}

var unknownErrBytes = []byte("-Err unknown\r\n")

func (r *UnknownErrReply) ToBytes() []byte {
	return unknownErrBytes
}

func (r *UnknownErrReply) Error() string {
	return "Err unknown"
}

// 错误的参数数量
type ArgNumErrReply struct {
	Cmd string
}

func (r *ArgNumErrReply) ToBytes() []byte {
	return []byte("-ERR wrong number of arguments for '" + r.Cmd + "' command\r\n")
}

func (r *ArgNumErrReply) Error() string {
	return "ERR wrong number of arguments for '" + r.Cmd + "' command"
}

func MakeArgNumErrReply(cmd string) *ArgNumErrReply {
	return &ArgNumErrReply{
		Cmd: cmd,
	}
}

// SyntaxErrReply 代表遇到不期望的参数
type SyntaxErrReply struct{}

var syntaxErrBytes = []byte("-Err syntax error\r\n")
var theSyntaxErrReply = &SyntaxErrReply{}

func (r *SyntaxErrReply) ToBytes() []byte {
	return syntaxErrBytes
}

func (r *SyntaxErrReply) Error() string {
	return "Err syntax error"
}

func MakeSyntaxErrReply() *SyntaxErrReply {
	return theSyntaxErrReply
}

type WrongTypeErrReply struct{}

var wrongTypeErrBytes = []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")

func (r *WrongTypeErrReply) ToBytes() []byte {
	return wrongTypeErrBytes
}

func (r *WrongTypeErrReply) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

/* ---- 一致性路由相关错误 ---- */

// 本节点不是 leader 时，要求客户端把请求重发给 leader
type MovedErrReply struct {
	Addr string
}

func MakeMovedErrReply(addr string) *MovedErrReply {
	return &MovedErrReply{
		Addr: addr,
	}
}

func (r *MovedErrReply) ToBytes() []byte {
	return []byte("-MOVED " + r.Addr + CRLF)
}

func (r *MovedErrReply) Error() string {
	return "MOVED " + r.Addr
}

// 集群中没有 leader
type ClusterDownErrReply struct{}

var clusterDownBytes = []byte("-CLUSTERDOWN No Raft leader\r\n")

func (r *ClusterDownErrReply) ToBytes() []byte {
	return clusterDownBytes
}

func (r *ClusterDownErrReply) Error() string {
	return "CLUSTERDOWN No Raft leader"
}

// raft 节点尚未初始化完成
type RaftNotInitErrReply struct{}

var raftNotInitBytes = []byte("-ERR raft node is not initialized\r\n")

func (r *RaftNotInitErrReply) ToBytes() []byte {
	return raftNotInitBytes
}

func (r *RaftNotInitErrReply) Error() string {
	return "ERR raft node is not initialized"
}
