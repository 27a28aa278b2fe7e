// Package storage 实现单个数据库的存储后端。
//
// 每个 Backend 持有一把读写锁：普通命令执行期间持共享锁，
// 带排他标记的管理命令持独占锁，保证两类命令不会交错执行。
// 键空间使用 xsync.MapOf，键级别的修改在 Compute 回调内完成，
// 修改总是生成新的 Object，读取方可以无锁访问旧快照。
package storage

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type ObjectKind byte

const (
	KindString ObjectKind = iota
	KindList
)

// Object 是一个键对应的值对象，视为不可变：
// 任何修改都会产生新的 Object 实例
type Object struct {
	Kind ObjectKind
	Str  []byte
	List [][]byte
}

type Backend struct {
	index   int
	mu      sync.RWMutex
	objects *xsync.MapOf[string, *Object]
}

func NewBackend(index int) *Backend {
	return &Backend{
		index:   index,
		objects: xsync.NewMapOf[string, *Object](),
	}
}

func (b *Backend) Index() int {
	return b.index
}

// ******************** 数据库级锁 ********************

func (b *Backend) LockShared() {
	b.mu.RLock()
}

func (b *Backend) UnLockShared() {
	b.mu.RUnlock()
}

func (b *Backend) LockExclusive() {
	b.mu.Lock()
}

func (b *Backend) UnLockExclusive() {
	b.mu.Unlock()
}

// ******************** String ********************

func (b *Backend) Get(key string) ([]byte, Status) {
	obj, ok := b.objects.Load(key)
	if !ok {
		return nil, NotFoundStatus()
	}
	if obj.Kind != KindString {
		return nil, WrongTypeStatus()
	}
	return obj.Str, OkStatus()
}

func (b *Backend) Set(key string, value []byte) Status {
	b.objects.Store(key, &Object{Kind: KindString, Str: value})
	return OkStatus()
}

// ******************** 键空间 ********************

func (b *Backend) Del(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		if _, ok := b.objects.LoadAndDelete(key); ok {
			deleted++
		}
	}
	return deleted
}

func (b *Backend) Exists(keys ...string) int {
	count := 0
	for _, key := range keys {
		if _, ok := b.objects.Load(key); ok {
			count++
		}
	}
	return count
}

func (b *Backend) Len() int {
	return b.objects.Size()
}

func (b *Backend) Flush() {
	b.objects.Clear()
}

// ForEach 遍历全部键值对，用于生成快照
func (b *Backend) ForEach(fn func(key string, obj *Object) bool) {
	b.objects.Range(func(key string, obj *Object) bool {
		return fn(key, obj)
	})
}

// ******************** List ********************

// LPush 将 values 依次插入表头，返回插入后的列表长度
func (b *Backend) LPush(key string, values ...[]byte) (int, Status) {
	return b.push(key, values, true)
}

// RPush 将 values 依次追加到表尾，返回插入后的列表长度
func (b *Backend) RPush(key string, values ...[]byte) (int, Status) {
	return b.push(key, values, false)
}

func (b *Backend) push(key string, values [][]byte, left bool) (int, Status) {
	length := 0
	status := OkStatus()
	b.objects.Compute(key, func(old *Object, loaded bool) (*Object, bool) {
		if loaded && old.Kind != KindList {
			status = WrongTypeStatus()
			return old, false
		}
		var prev [][]byte
		if loaded {
			prev = old.List
		}
		var next [][]byte
		if left {
			next = make([][]byte, 0, len(values)+len(prev))
			for i := len(values) - 1; i >= 0; i-- {
				next = append(next, values[i])
			}
			next = append(next, prev...)
		} else {
			next = make([][]byte, 0, len(prev)+len(values))
			next = append(next, prev...)
			next = append(next, values...)
		}
		length = len(next)
		return &Object{Kind: KindList, List: next}, false
	})
	return length, status
}

// LPop 从表头弹出至多 count 个元素。
// 键不存在时返回 NotFound；弹空后键被删除
func (b *Backend) LPop(key string, count int) ([][]byte, Status) {
	return b.pop(key, count, true)
}

// RPop 从表尾弹出至多 count 个元素
func (b *Backend) RPop(key string, count int) ([][]byte, Status) {
	return b.pop(key, count, false)
}

func (b *Backend) pop(key string, count int, left bool) ([][]byte, Status) {
	if count <= 0 {
		return nil, OkStatus()
	}
	var popped [][]byte
	status := OkStatus()
	b.objects.Compute(key, func(old *Object, loaded bool) (*Object, bool) {
		if !loaded {
			status = NotFoundStatus()
			return old, true
		}
		if old.Kind != KindList {
			status = WrongTypeStatus()
			return old, false
		}
		n := count
		if n > len(old.List) {
			n = len(old.List)
		}
		if left {
			popped = old.List[:n]
			rest := old.List[n:]
			if len(rest) == 0 {
				return nil, true
			}
			return &Object{Kind: KindList, List: rest}, false
		}
		popped = make([][]byte, 0, n)
		for i := 0; i < n; i++ {
			popped = append(popped, old.List[len(old.List)-1-i])
		}
		rest := old.List[:len(old.List)-n]
		if len(rest) == 0 {
			return nil, true
		}
		return &Object{Kind: KindList, List: rest}, false
	})
	return popped, status
}

func (b *Backend) LLen(key string) (int, Status) {
	obj, ok := b.objects.Load(key)
	if !ok {
		return 0, NotFoundStatus()
	}
	if obj.Kind != KindList {
		return 0, WrongTypeStatus()
	}
	return len(obj.List), OkStatus()
}

// LRange 返回 [start, stop] 闭区间内的元素，索引支持负数
func (b *Backend) LRange(key string, start int, stop int) ([][]byte, Status) {
	obj, ok := b.objects.Load(key)
	if !ok {
		return nil, NotFoundStatus()
	}
	if obj.Kind != KindList {
		return nil, WrongTypeStatus()
	}
	size := len(obj.List)
	if start < 0 {
		start = size + start
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop = size + stop
	}
	if start >= size || start > stop {
		return nil, OkStatus()
	}
	if stop >= size {
		stop = size - 1
	}
	return obj.List[start : stop+1], OkStatus()
}

// PutList 整体写入一个列表对象，用于快照恢复
func (b *Backend) PutList(key string, values [][]byte) {
	b.objects.Store(key, &Object{Kind: KindList, List: values})
}
