package database

import (
	"container/list"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"raftis/interface/redis"
	"raftis/lib/timewheel"
	"raftis/protocol"
)

var wakeupCounter = metrics.GetOrCreateCounter("raftis_blocked_wakeups_total")

// BlockKey 是连接阻塞等待的 (数据库, 键) 二元组
type BlockKey struct {
	DB  int
	Key string
}

// blockedConnNode 记录一个挂起的连接。
// conn 只是借用引用，连接的生命周期由会话层管理；
// expireAt 为毫秒时间戳，0 表示永不超时
type blockedConnNode struct {
	id       uint64
	conn     redis.Connection
	expireAt int64
}

func (node *blockedConnNode) IsExpired() bool {
	if node.expireAt == 0 {
		return false
	}
	return time.Now().UnixMilli() >= node.expireAt
}

// blockedManager 维护 BlockKey 到等待队列的映射。
// 全部队列共用一把进程级读写锁：查找可以并发，改动必须持写锁
type blockedManager struct {
	mu      sync.RWMutex
	waiting map[BlockKey]*list.List
	nextID  atomic.Uint64
}

func newBlockedManager() *blockedManager {
	return &blockedManager{
		waiting: make(map[BlockKey]*list.List),
	}
}

// addBlocked 把连接追加到 key 等待队列的尾部（先阻塞的在前）
func (m *blockedManager) addBlocked(key BlockKey, c redis.Connection, expireAt int64) *blockedConnNode {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue, ok := m.waiting[key]
	if !ok {
		queue = list.New()
		m.waiting[key] = queue
	}
	node := &blockedConnNode{
		id:       m.nextID.Add(1),
		conn:     c,
		expireAt: expireAt,
	}
	queue.PushBack(node)
	return node
}

// removeConn 清除连接在所有队列中的登记，连接关闭时调用
func (m *blockedManager) removeConn(c redis.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, queue := range m.waiting {
		for e := queue.Front(); e != nil; {
			next := e.Next()
			if e.Value.(*blockedConnNode).conn == c {
				queue.Remove(e)
			}
			e = next
		}
		if queue.Len() == 0 {
			delete(m.waiting, key)
		}
	}
}

// ServeAndUnblockConns 在某个键写入新数据后，按先阻塞先服务的顺序
// 唤醒等待该键的连接，直到等待者耗尽或数据耗尽。
//
// 常见情形是没人等待，所以先在读锁下探测队列是否存在；
// 需要改动时换成写锁，并在写锁下重新确认队列仍然存在——
// 两次加锁之间队列可能刚刚被创建或清空
func (server *Server) ServeAndUnblockConns(c redis.Connection) {
	key := BlockKey{DB: c.GetDBIndex(), Key: c.Key()}
	m := server.blocked

	m.mu.RLock()
	_, ok := m.waiting[key]
	m.mu.RUnlock()
	if !ok {
		// 没有连接在等这个键
		return
	}

	// 唤醒服务弹出的元素同样要进入复制流，
	// 但要等放开登记表的写锁之后再提交
	served := server.serveBlockedConns(key)
	for i := 0; i < served; i++ {
		server.afterWrite(key.DB, [][]byte{[]byte("lpop"), []byte(key.Key)})
	}
}

func (server *Server) serveBlockedConns(key BlockKey) int {
	m := server.blocked
	m.mu.Lock()
	defer m.mu.Unlock()
	queue, ok := m.waiting[key]
	if !ok {
		return 0
	}

	backend := server.selectBackend(key.DB)
	if backend == nil {
		return 0
	}
	served := 0

	// 从队头到队尾遍历，队头是最早阻塞的连接
	for e := queue.Front(); e != nil; {
		node := e.Value.(*blockedConnNode)
		values, status := backend.LPop(key.Key, 1)
		if status.OK() {
			wakeupCounter.Inc()
			served++
			node.conn.AppendArrayLen(2)
			node.conn.AppendString(key.Key)
			node.conn.AppendString(string(values[0]))
		} else if status.IsNotFound() {
			// 键上已经没有元素可以继续服务，剩余等待者留待下一次写入
			break
		} else {
			// 后端出错只影响当前这个等待者，继续服务后面的
			node.conn.SetRes(protocol.MakeErrReply(status.String()))
		}
		_ = node.conn.SendPacket()
		next := e.Next()
		queue.Remove(e)
		e = next
	}
	if queue.Len() == 0 {
		delete(m.waiting, key)
	}
	return served
}

// blockClient 把连接登记为 key 的等待者，timeout 为 0 表示永不超时，
// 否则通过时间轮调度一次超时清扫
func (server *Server) blockClient(c redis.Connection, key string, timeout time.Duration) {
	bk := BlockKey{DB: c.GetDBIndex(), Key: key}
	var expireAt int64
	if timeout > 0 {
		expireAt = time.Now().Add(timeout).UnixMilli()
	}
	node := server.blocked.addBlocked(bk, c, expireAt)
	if expireAt > 0 {
		taskKey := "blocked:" + strconv.Itoa(bk.DB) + ":" + key + ":" + strconv.FormatUint(node.id, 10)
		timewheel.Delay(timeout, taskKey, func() {
			server.sweepExpiredConns(bk)
		})
	}
}

// sweepExpiredConns 移除 key 队列中所有已超时的等待者，
// 给它们回复阻塞超时的空数组
func (server *Server) sweepExpiredConns(key BlockKey) {
	m := server.blocked
	m.mu.Lock()
	defer m.mu.Unlock()
	queue, ok := m.waiting[key]
	if !ok {
		return
	}
	for e := queue.Front(); e != nil; {
		next := e.Next()
		node := e.Value.(*blockedConnNode)
		if node.IsExpired() {
			node.conn.SetRes(protocol.MakeNullMultiBulkReply())
			_ = node.conn.SendPacket()
			queue.Remove(e)
		}
		e = next
	}
	if queue.Len() == 0 {
		delete(m.waiting, key)
	}
}
