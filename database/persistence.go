package database

import (
	"errors"
	"io"
	"strconv"
	"time"

	rdbcodec "github.com/hdt3213/rdb/encoder"
	rdb "github.com/hdt3213/rdb/parser"

	"raftis/storage"
)

// DumpRDB 把全部数据库的当前内容按 RDB 格式写入 w，
// 作为 raft 快照的载体，也可以单独用来落盘备份。
// 调用方负责保证期间没有并发写入
func (server *Server) DumpRDB(w io.Writer) error {
	encoder := rdbcodec.NewEncoder(w).EnableCompress()
	if err := encoder.WriteHeader(); err != nil {
		return err
	}
	auxMap := map[string]string{
		"redis-bits": "64",
		"ctime":      strconv.FormatInt(time.Now().Unix(), 10),
	}
	for key, val := range auxMap {
		if err := encoder.WriteAux(key, val); err != nil {
			return err
		}
	}

	for i, backend := range server.dbSet {
		keyCount := backend.Len()
		if keyCount == 0 {
			continue
		}
		if err := encoder.WriteDBHeader(uint(i), uint64(keyCount), 0); err != nil {
			return err
		}
		var dumpErr error
		backend.ForEach(func(key string, obj *storage.Object) bool {
			switch obj.Kind {
			case storage.KindString:
				dumpErr = encoder.WriteStringObject(key, obj.Str)
			case storage.KindList:
				dumpErr = encoder.WriteListObject(key, obj.List)
			default:
				dumpErr = errors.New("unknown object kind " + strconv.Itoa(int(obj.Kind)))
			}
			return dumpErr == nil
		})
		if dumpErr != nil {
			return dumpErr
		}
	}
	return encoder.WriteEnd()
}

// LoadRDB 解析 r 中的 RDB 文件流并替换全部数据库内容，
// 用于从 raft 快照恢复。先清空再装载
func (server *Server) LoadRDB(r io.Reader) error {
	for _, backend := range server.dbSet {
		backend.Flush()
	}
	decoder := rdb.NewDecoder(r)
	return decoder.Parse(func(object rdb.RedisObject) bool {
		backend := server.selectBackend(object.GetDBIndex())
		if backend == nil {
			return true
		}
		switch object.GetType() {
		case rdb.StringType:
			str := object.(*rdb.StringObject)
			backend.Set(object.GetKey(), str.Value)
		case rdb.ListType:
			listObj := object.(*rdb.ListObject)
			backend.PutList(object.GetKey(), listObj.Values)
		}
		return true
	})
}
