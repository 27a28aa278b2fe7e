package database

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"

	"raftis/config"
	"raftis/interface/redis"
	"raftis/lib/logger"
	"raftis/protocol"
)

var (
	redirectCounter    = metrics.GetOrCreateCounter("raftis_raft_redirects_total")
	clusterDownCounter = metrics.GetOrCreateCounter("raftis_raft_cluster_down_total")
)

// execute 是每条命令的调度管线，顺序固定：
//
//	一致性路由 -> 数据库共享锁 -> DoInitial -> DoCmd
//
// 路由只作用于带读/写标志的命令；共享锁在本函数的所有退出路径上
// 恰好释放一次；DoInitial 返回 false 则直接终止，不执行 DoCmd。
// replay 为 true 表示重放路径（AOF 加载、raft 日志应用），跳过路由
func (server *Server) execute(cmd Command, c redis.Connection, replay bool) {
	logger.Debugf("execute command: %s", c.CmdName())
	metrics.GetOrCreateCounter(fmt.Sprintf(`raftis_commands_total{cmd=%q}`, cmd.Name())).Inc()

	// 一致性路由：读请求按 lease read 处理，与写请求走同一张门，
	// 从非 leader 节点读可能读到旧数据
	if !replay && config.Properties.UseRaft && (cmd.HasFlag(FlagReadonly) || cmd.HasFlag(FlagWrite)) {
		node := server.raft
		if node == nil || !node.IsInitialized() {
			c.SetRes(&protocol.RaftNotInitErrReply{})
			return
		}
		if !node.IsLeader() {
			leaderAddr := node.GetLeaderAddress()
			if leaderAddr == "" {
				clusterDownCounter.Inc()
				c.SetRes(&protocol.ClusterDownErrReply{})
				return
			}
			redirectCounter.Inc()
			c.SetRes(protocol.MakeMovedErrReply(leaderAddr))
			return
		}
	}

	backend := server.selectBackend(c.GetDBIndex())
	if backend == nil {
		c.SetRes(protocol.MakeErrReply("ERR DB index is out of range"))
		return
	}

	// 排他命令不取共享锁，独占性由命令自身保证
	if !cmd.HasFlag(FlagExclusive) {
		backend.LockShared()
		defer backend.UnLockShared()
	}

	if !cmd.DoInitial(c) {
		return
	}

	// 复合命令：组的 DoInitial 只校验子命令存在，
	// 解析出的子命令由这里分派执行
	if cmd.HasSubCommand() {
		sub := cmd.GetSubCmd(c.SubCmdName())
		if sub == nil {
			c.SetRes(protocol.MakeErrReply(string(c.Argv()[0]) + " unknown subcommand for '" + c.SubCmdName() + "'"))
			return
		}
		if !sub.DoInitial(c) {
			return
		}
		sub.DoCmd(c)
		return
	}

	cmd.DoCmd(c)
}
