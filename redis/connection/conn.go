// Package connection 封装服务端侧的客户端连接：请求参数状态、
// 回复缓冲与发送、数据库选择等
package connection

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"raftis/interface/redis"
	"raftis/lib/sync/wait"
)

type Connection struct {
	conn        net.Conn
	sendingData wait.Wait  // 等待数据发送完成再关闭
	mu          sync.Mutex // 保护 pending 回复缓冲
	password    string
	selectedDB  int

	// 当前请求的参数状态，由调度层写入、命令读取
	argv       [][]byte
	cmdName    string
	key        string
	subCmdName string

	pending []byte
}

// connObjPool 复用 Connection 实例，降低 GC 压力
var connObjPool = sync.Pool{
	New: func() interface{} {
		return &Connection{}
	},
}

func NewConn(conn net.Conn) *Connection {
	c, ok := connObjPool.Get().(*Connection)
	if !ok {
		return &Connection{conn: conn}
	}
	c.conn = conn
	return c
}

func (c *Connection) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	c.sendingData.Add(1)
	defer c.sendingData.Done()
	return c.conn.Write(b)
}

// 优雅关闭连接，最多等待 10 秒确保数据发送完成
func (c *Connection) Close() error {
	c.sendingData.WaitWithTimeout(10 * time.Second)
	if c.conn != nil {
		_ = c.conn.Close()
	}

	// 清理状态并放回对象池
	c.password = ""
	c.selectedDB = 0
	c.argv = nil
	c.cmdName = ""
	c.key = ""
	c.subCmdName = ""
	c.pending = nil
	connObjPool.Put(c)
	return nil
}

func (c *Connection) RemoteAddr() string {
	if c.conn != nil {
		return c.conn.RemoteAddr().String()
	}
	return ""
}

func (c *Connection) Name() string {
	return c.RemoteAddr()
}

func (c *Connection) SetPassword(password string) {
	c.password = password
}

func (c *Connection) GetPassword() string {
	return c.password
}

func (c *Connection) GetDBIndex() int {
	return c.selectedDB
}

func (c *Connection) SelectDB(dbNum int) {
	c.selectedDB = dbNum
}

// ******************** 请求参数状态 ********************

func (c *Connection) SetArgv(argv [][]byte) {
	c.argv = argv
	c.key = ""
	c.subCmdName = ""
	if len(argv) > 0 {
		c.cmdName = strings.ToLower(string(argv[0]))
	} else {
		c.cmdName = ""
	}
}

func (c *Connection) Argv() [][]byte {
	return c.argv
}

func (c *Connection) CmdName() string {
	return c.cmdName
}

func (c *Connection) SetKey(key string) {
	c.key = key
}

func (c *Connection) Key() string {
	return c.key
}

func (c *Connection) SetSubCmdName(name string) {
	c.subCmdName = name
}

func (c *Connection) SubCmdName() string {
	return c.subCmdName
}

// ******************** 回复组装 ********************

func (c *Connection) AppendArrayLen(n int) {
	c.append([]byte("*" + strconv.Itoa(n) + "\r\n"))
}

func (c *Connection) AppendString(s string) {
	c.append([]byte("$" + strconv.Itoa(len(s)) + "\r\n" + s + "\r\n"))
}

func (c *Connection) SetRes(reply redis.Reply) {
	c.append(reply.ToBytes())
}

func (c *Connection) append(b []byte) {
	c.mu.Lock()
	c.pending = append(c.pending, b...)
	c.mu.Unlock()
}

// SendPacket 将缓冲的回复一次性发出；缓冲为空时不写任何字节
func (c *Connection) SendPacket() error {
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
