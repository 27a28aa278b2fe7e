package connection

import (
	"strconv"
	"strings"
	"sync"

	"raftis/interface/redis"
)

// FakeConn 是用于测试的假连接，SendPacket 发送的字节
// 累积在内存中，可通过 Bytes 取出
type FakeConn struct {
	mu         sync.Mutex
	password   string
	selectedDB int

	argv       [][]byte
	cmdName    string
	key        string
	subCmdName string

	pending []byte
	sent    []byte
	closed  bool
}

func NewFakeConn() *FakeConn {
	return &FakeConn{}
}

func (c *FakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	c.sent = append(c.sent, b...)
	c.mu.Unlock()
	return len(b), nil
}

func (c *FakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *FakeConn) RemoteAddr() string {
	return "fake:0"
}

func (c *FakeConn) Name() string {
	return "fake:0"
}

func (c *FakeConn) SetPassword(password string) {
	c.password = password
}

func (c *FakeConn) GetPassword() string {
	return c.password
}

func (c *FakeConn) GetDBIndex() int {
	return c.selectedDB
}

func (c *FakeConn) SelectDB(dbNum int) {
	c.selectedDB = dbNum
}

func (c *FakeConn) SetArgv(argv [][]byte) {
	c.argv = argv
	c.key = ""
	c.subCmdName = ""
	if len(argv) > 0 {
		c.cmdName = strings.ToLower(string(argv[0]))
	} else {
		c.cmdName = ""
	}
}

func (c *FakeConn) Argv() [][]byte {
	return c.argv
}

func (c *FakeConn) CmdName() string {
	return c.cmdName
}

func (c *FakeConn) SetKey(key string) {
	c.key = key
}

func (c *FakeConn) Key() string {
	return c.key
}

func (c *FakeConn) SetSubCmdName(name string) {
	c.subCmdName = name
}

func (c *FakeConn) SubCmdName() string {
	return c.subCmdName
}

func (c *FakeConn) AppendArrayLen(n int) {
	c.append([]byte("*" + strconv.Itoa(n) + "\r\n"))
}

func (c *FakeConn) AppendString(s string) {
	c.append([]byte("$" + strconv.Itoa(len(s)) + "\r\n" + s + "\r\n"))
}

func (c *FakeConn) SetRes(reply redis.Reply) {
	c.append(reply.ToBytes())
}

func (c *FakeConn) append(b []byte) {
	c.mu.Lock()
	c.pending = append(c.pending, b...)
	c.mu.Unlock()
}

func (c *FakeConn) SendPacket() error {
	c.mu.Lock()
	buf := c.pending
	c.pending = nil
	c.mu.Unlock()
	if len(buf) == 0 {
		return nil
	}
	_, err := c.Write(buf)
	return err
}

// Bytes 返回已经发送的全部字节
func (c *FakeConn) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Clean 清空已发送与未发送的数据
func (c *FakeConn) Clean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
	c.pending = nil
}
