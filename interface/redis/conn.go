package redis

// Reply 是服务端写回客户端的 RESP 协议消息
type Reply interface {
	ToBytes() []byte
}

// Connection 表示一个客户端会话。
// 命令在执行过程中通过它读取本次请求的参数状态（argv、key、子命令名），
// 并通过 AppendArrayLen / AppendString / SetRes 组装回复，
// 最后由 SendPacket 一次性发出。
type Connection interface {
	Write([]byte) (int, error)
	Close() error
	RemoteAddr() string
	Name() string

	SetPassword(string)
	GetPassword() string

	GetDBIndex() int
	SelectDB(dbNum int)

	// 本次请求的参数状态，由调度层在执行前写入
	SetArgv(argv [][]byte)
	Argv() [][]byte
	CmdName() string
	SetKey(key string)
	Key() string
	SetSubCmdName(name string)
	SubCmdName() string

	// 回复组装
	AppendArrayLen(n int)
	AppendString(s string)
	SetRes(reply Reply)
	SendPacket() error
}
