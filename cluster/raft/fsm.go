// Package raft 封装 hashicorp/raft，把已提交的写命令日志应用到存储引擎。
// 状态机不自己持有数据：快照与恢复直接委托给引擎的 RDB 编解码
package raft

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/hashicorp/raft"

	"raftis/lib/logger"
)

// DBEngine 是状态机对存储引擎的最小依赖：
// 重放一条写命令，以及整库的快照导出与恢复
type DBEngine interface {
	ApplyCmdLine(dbIndex int, cmdLine [][]byte)
	DumpRDB(w io.Writer) error
	LoadRDB(r io.Reader) error
}

// LogEntry 是 raft 日志条目：一条写命令以及它发起者的身份。
// 发起者在提案前已经在本地执行过这条命令，应用时要跳过自己
type LogEntry struct {
	NodeID  string   `json:"node_id"`
	DBIndex int      `json:"db_index"`
	CmdLine [][]byte `json:"cmd_line"`
}

type FSM struct {
	nodeID string
	engine DBEngine
}

// Apply 在日志条目被多数节点提交后调用
func (fsm *FSM) Apply(log *raft.Log) interface{} {
	entry := &LogEntry{}
	if err := json.Unmarshal(log.Data, entry); err != nil {
		logger.Errorf("unmarshal raft log failed: %v", err)
		return err
	}
	if entry.NodeID == fsm.nodeID {
		return nil
	}
	fsm.engine.ApplyCmdLine(entry.DBIndex, entry.CmdLine)
	return nil
}

// FSMSnapshot 持有生成快照那一刻的 RDB 字节流
type FSMSnapshot struct {
	data []byte
}

func (snapshot *FSMSnapshot) Persist(sink raft.SnapshotSink) error {
	if _, err := sink.Write(snapshot.data); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (snapshot *FSMSnapshot) Release() {}

// Snapshot 把引擎当前内容编码为 RDB 字节流，
// 落盘由 raft 在合适的时机通过 Persist 完成
func (fsm *FSM) Snapshot() (raft.FSMSnapshot, error) {
	var buf bytes.Buffer
	if err := fsm.engine.DumpRDB(&buf); err != nil {
		return nil, err
	}
	return &FSMSnapshot{data: buf.Bytes()}, nil
}

// Restore 用快照内容整体替换引擎状态，
// 节点重启或日志落后太多时由 raft 调用
func (fsm *FSM) Restore(src io.ReadCloser) error {
	defer src.Close()
	return fsm.engine.LoadRDB(src)
}
