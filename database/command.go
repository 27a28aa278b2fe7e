package database

import (
	"sync/atomic"

	"raftis/interface/redis"
	"raftis/protocol"
)

type CmdLine = [][]byte

// 命令标志位
const (
	FlagWrite uint32 = 1 << iota
	FlagReadonly
	// 排他命令：不取数据库共享锁，由外部保证独占执行
	FlagExclusive
	FlagAdmin
	FlagFast
)

// ACL 类别位
const (
	AclCategoryRead uint32 = 1 << iota
	AclCategoryWrite
	AclCategoryKeyspace
	AclCategoryString
	AclCategoryList
	AclCategoryBlocking
	AclCategoryAdmin
	AclCategoryConnection
)

// 进程级命令身份计数器：每构造一个命令描述符分配一次，进程内不复用
var cmdID atomic.Uint32

// Command 是所有命令的统一接口。
// DoInitial 做校验和准备，返回 false 表示回复已写入、不再执行 DoCmd；
// DoCmd 执行命令效果
type Command interface {
	Name() string
	Arity() int
	CheckArg(num int) bool

	HasFlag(flag uint32) bool
	SetFlag(flag uint32)
	ResetFlag(flag uint32)

	AclCategory() uint32
	AddAclCategory(category uint32)

	CmdID() uint32

	HasSubCommand() bool
	GetSubCmd(name string) Command

	DoInitial(c redis.Connection) bool
	DoCmd(c redis.Connection)
}

// BaseCmd 是命令的公共元数据：名称、参数约定、标志位、ACL 类别与身份
type BaseCmd struct {
	name        string
	arity       int
	flags       uint32
	aclCategory uint32
	cmdID       uint32
}

func NewBaseCmd(name string, arity int, flags uint32, aclCategory uint32) *BaseCmd {
	return &BaseCmd{
		name:        name,
		arity:       arity,
		flags:       flags,
		aclCategory: aclCategory,
		cmdID:       cmdID.Add(1),
	}
}

func (cmd *BaseCmd) Name() string {
	return cmd.name
}

func (cmd *BaseCmd) Arity() int {
	return cmd.arity
}

// CheckArg 校验实际参数个数（含命令名本身）。
// arity 为正表示参数个数必须恰好相等，为负表示至少要有 |arity| 个
func (cmd *BaseCmd) CheckArg(num int) bool {
	if cmd.arity > 0 {
		return num == cmd.arity
	}
	return num >= -cmd.arity
}

func (cmd *BaseCmd) HasFlag(flag uint32) bool {
	return cmd.flags&flag != 0
}

func (cmd *BaseCmd) SetFlag(flag uint32) {
	cmd.flags |= flag
}

func (cmd *BaseCmd) ResetFlag(flag uint32) {
	cmd.flags &^= flag
}

func (cmd *BaseCmd) AclCategory() uint32 {
	return cmd.aclCategory
}

// AddAclCategory 只做按位并入，永远不清除已有类别
func (cmd *BaseCmd) AddAclCategory(category uint32) {
	cmd.aclCategory |= category
}

func (cmd *BaseCmd) CmdID() uint32 {
	return cmd.cmdID
}

func (cmd *BaseCmd) HasSubCommand() bool {
	return false
}

func (cmd *BaseCmd) GetSubCmd(name string) Command {
	return nil
}

// CmdGroup 是复合命令：按第二个参数分派到子命令。
// 子命令由组独占持有，查找是大小写敏感的精确匹配
type CmdGroup struct {
	*BaseCmd
	subCmds map[string]Command
}

func NewCmdGroup(name string, flags uint32) *CmdGroup {
	return NewCmdGroupWithArity(name, -2, flags)
}

func NewCmdGroupWithArity(name string, arity int, flags uint32) *CmdGroup {
	return &CmdGroup{
		BaseCmd: NewBaseCmd(name, arity, flags, 0),
		subCmds: make(map[string]Command),
	}
}

func (g *CmdGroup) AddSubCmd(cmd Command) {
	g.subCmds[cmd.Name()] = cmd
}

func (g *CmdGroup) HasSubCommand() bool {
	return true
}

func (g *CmdGroup) GetSubCmd(name string) Command {
	cmd, ok := g.subCmds[name]
	if !ok {
		return nil
	}
	return cmd
}

// DoInitial 只负责解析并校验子命令是否存在；
// 命中后子命令的执行由调度层完成
func (g *CmdGroup) DoInitial(c redis.Connection) bool {
	argv := c.Argv()
	c.SetSubCmdName(string(argv[1]))
	if _, ok := g.subCmds[c.SubCmdName()]; !ok {
		c.SetRes(protocol.MakeErrReply(string(argv[0]) + " unknown subcommand for '" + c.SubCmdName() + "'"))
		return false
	}
	return true
}

func (g *CmdGroup) DoCmd(c redis.Connection) {
	// 子命令由调度层分派，组本身没有执行体
}
