// Package aof 实现 AOF 持久化：写命令先进缓冲通道，
// 由独立协程按 fsync 策略落盘，启动时重放文件恢复数据
package aof

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"raftis/config"
	"raftis/lib/logger"
	"raftis/lib/utils"
	"raftis/parser"
	"raftis/protocol"
)

type CmdLine = [][]byte

const aofQueueSize = 1 << 20

// 待写入 AOF 文件的命令以及所属数据库索引
type payload struct {
	cmdLine CmdLine
	dbIndex int
}

type Persister struct {
	// 接收写入 AOF 的命令
	aofChan     chan *payload
	aofFile     *os.File
	aofFilename string
	// fsync 策略
	aofFsync    string
	aofFinished chan struct{}
	closed      chan struct{}
	// 用于暂停/恢复 AOF 写入
	pausingAof sync.Mutex
	currentDB  int
	// 加载期间置位，重放出来的命令不再回写文件
	loading atomic.Bool
	// 重放回调，由数据库实例提供
	exec func(dbIndex int, cmdLine CmdLine)
}

func NewPersister(filename string, fsync string, exec func(dbIndex int, cmdLine CmdLine)) (*Persister, error) {
	aofFile, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	persister := &Persister{
		aofChan:     make(chan *payload, aofQueueSize),
		aofFile:     aofFile,
		aofFilename: filename,
		aofFsync:    fsync,
		aofFinished: make(chan struct{}),
		closed:      make(chan struct{}),
		currentDB:   0,
		exec:        exec,
	}
	go persister.listenCmd()
	if persister.aofFsync == config.FsyncEverySec {
		go persister.fsyncEverySecond()
	}
	return persister, nil
}

// SaveCmdLine 把一条写命令追加到 AOF。
// always 策略下同步写入并刷盘，其余策略进缓冲通道异步写
func (persister *Persister) SaveCmdLine(dbIndex int, cmdLine CmdLine) {
	if persister.loading.Load() {
		return
	}
	p := &payload{
		cmdLine: cmdLine,
		dbIndex: dbIndex,
	}
	if persister.aofFsync == config.FsyncAlways {
		persister.writeAof(p)
		return
	}
	persister.aofChan <- p
}

func (persister *Persister) listenCmd() {
	for p := range persister.aofChan {
		persister.writeAof(p)
	}
	close(persister.aofFinished)
}

func (persister *Persister) writeAof(p *payload) {
	persister.pausingAof.Lock()
	defer persister.pausingAof.Unlock()

	// 数据库索引变化时先写入一条 SELECT
	if p.dbIndex != persister.currentDB {
		selectCmd := utils.ToCmdLine("SELECT", strconv.Itoa(p.dbIndex))
		if _, err := persister.aofFile.Write(protocol.MakeMultiBulkReply(selectCmd).ToBytes()); err != nil {
			logger.Warn(err)
			return
		}
		persister.currentDB = p.dbIndex
	}
	if _, err := persister.aofFile.Write(protocol.MakeMultiBulkReply(p.cmdLine).ToBytes()); err != nil {
		logger.Warn(err)
		return
	}
	if persister.aofFsync == config.FsyncAlways {
		_ = persister.aofFile.Sync()
	}
}

func (persister *Persister) fsyncEverySecond() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			persister.pausingAof.Lock()
			if err := persister.aofFile.Sync(); err != nil {
				logger.Warnf("fsync failed: %v", err)
			}
			persister.pausingAof.Unlock()
		case <-persister.closed:
			return
		}
	}
}

// LoadAof 重放 AOF 文件中的全部命令。
// SELECT 在这里就地处理，其余命令交给重放回调执行
func (persister *Persister) LoadAof() {
	persister.loading.Store(true)
	defer persister.loading.Store(false)

	file, err := os.Open(persister.aofFilename)
	if err != nil {
		if _, ok := err.(*os.PathError); ok {
			return
		}
		logger.Warn(err)
		return
	}
	defer file.Close()

	dbIndex := 0
	ch := parser.ParseStream(file)
	for p := range ch {
		if p.Err != nil {
			// 文件尾部可能有一条没写完整的命令，剩余内容直接丢弃
			logger.Warnf("stop loading aof: %v", p.Err)
			break
		}
		if p.Data == nil {
			continue
		}
		reply, ok := p.Data.(*protocol.MultiBulkReply)
		if !ok || len(reply.Args) == 0 {
			logger.Warn("require multi bulk protocol in aof")
			continue
		}
		if len(reply.Args) == 2 && string(reply.Args[0]) == "SELECT" {
			index, err := strconv.Atoi(string(reply.Args[1]))
			if err == nil {
				dbIndex = index
			}
			continue
		}
		persister.exec(dbIndex, reply.Args)
	}
}

// Fsync 手动刷盘一次
func (persister *Persister) Fsync() {
	persister.pausingAof.Lock()
	defer persister.pausingAof.Unlock()
	if err := persister.aofFile.Sync(); err != nil {
		logger.Warnf("fsync failed: %v", err)
	}
}

func (persister *Persister) Close() {
	close(persister.closed)
	if persister.aofFile != nil {
		close(persister.aofChan)
		<-persister.aofFinished
		if err := persister.aofFile.Close(); err != nil {
			logger.Warn(err)
		}
	}
}
