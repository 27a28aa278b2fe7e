package raft

import (
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"raftis/lib/logger"
)

const proposeTimeout = 10 * time.Second

type Config struct {
	NodeID        string // 对客户端公布的服务地址，同时作为节点在集群里的身份
	ListenAddr    string // raft 内部通信监听地址
	AdvertiseAddr string // raft 广播地址
	Dir           string // 日志与快照的存储目录
	Bootstrap     bool   // 是否以单节点引导新集群
}

// Node 是一个完整的 raft 节点实例
type Node struct {
	cfg           *Config
	fsm           *FSM
	inner         *raft.Raft
	logStore      raft.LogStore
	stableStore   raft.StableStore
	snapshotStore raft.SnapshotStore
	transport     raft.Transport
}

// StartNode 创建并启动 raft 节点：boltdb 承载日志与稳定存储，
// 快照走文件存储，日志管线与服务端共用
func StartNode(cfg *Config, engine DBEngine) (*Node, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	hclogger := logger.Named("raft")

	store, err := raftboltdb.NewBoltStore(filepath.Join(cfg.Dir, "raft.db"))
	if err != nil {
		return nil, err
	}
	snapshotStore, err := raft.NewFileSnapshotStoreWithLogger(cfg.Dir, 3, hclogger)
	if err != nil {
		return nil, err
	}

	advertiseAddr := cfg.AdvertiseAddr
	if advertiseAddr == "" {
		advertiseAddr = cfg.ListenAddr
	}
	advertise, err := net.ResolveTCPAddr("tcp", advertiseAddr)
	if err != nil {
		return nil, err
	}
	transport, err := raft.NewTCPTransport(cfg.ListenAddr, advertise, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, err
	}

	fsm := &FSM{
		nodeID: cfg.NodeID,
		engine: engine,
	}
	rconf := raft.DefaultConfig()
	rconf.LocalID = raft.ServerID(cfg.NodeID)
	rconf.Logger = hclogger
	inner, err := raft.NewRaft(rconf, fsm, store, store, snapshotStore, transport)
	if err != nil {
		return nil, err
	}

	node := &Node{
		cfg:           cfg,
		fsm:           fsm,
		inner:         inner,
		logStore:      store,
		stableStore:   store,
		snapshotStore: snapshotStore,
		transport:     transport,
	}
	if cfg.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{
					ID:      raft.ServerID(cfg.NodeID),
					Address: transport.LocalAddr(),
				},
			},
		}
		err := inner.BootstrapCluster(configuration).Error()
		if err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
			return nil, err
		}
	}
	logger.Infof("raft node %s started, listen on %s", cfg.NodeID, cfg.ListenAddr)
	return node, nil
}

func (node *Node) IsInitialized() bool {
	return node != nil && node.inner != nil
}

func (node *Node) IsLeader() bool {
	return node.inner.State() == raft.Leader
}

// GetLeaderAddress 返回 leader 对客户端公布的服务地址。
// 节点身份就是公布地址，所以直接用 leader 的 ID，没有 leader 时为空串
func (node *Node) GetLeaderAddress() string {
	_, id := node.inner.LeaderWithID()
	return string(id)
}

// ProposeCmdLine 把一条已在本地执行的写命令提交到 raft 日志
func (node *Node) ProposeCmdLine(dbIndex int, cmdLine [][]byte) error {
	entry := &LogEntry{
		NodeID:  node.cfg.NodeID,
		DBIndex: dbIndex,
		CmdLine: cmdLine,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return node.inner.Apply(data, proposeTimeout).Error()
}

// Join 把新节点以投票者身份加入集群，只有 leader 能受理
func (node *Node) Join(id string, addr string) error {
	if !node.IsLeader() {
		return errors.New("not leader")
	}
	return node.inner.AddVoter(raft.ServerID(id), raft.ServerAddress(addr), 0, 0).Error()
}

func (node *Node) State() string {
	return node.inner.State().String()
}

func (node *Node) Shutdown() error {
	return node.inner.Shutdown().Error()
}
