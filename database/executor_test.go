package database

import (
	"strings"
	"testing"

	"raftis/config"
	"raftis/lib/utils"
	"raftis/redis/connection"
)

type stubConsensus struct {
	initialized bool
	leader      bool
	leaderAddr  string
	proposed    []CmdLine
}

func (s *stubConsensus) IsInitialized() bool      { return s.initialized }
func (s *stubConsensus) IsLeader() bool           { return s.leader }
func (s *stubConsensus) GetLeaderAddress() string { return s.leaderAddr }
func (s *stubConsensus) ProposeCmdLine(dbIndex int, cmdLine CmdLine) error {
	s.proposed = append(s.proposed, cmdLine)
	return nil
}
func (s *stubConsensus) Join(id string, addr string) error { return nil }
func (s *stubConsensus) State() string                     { return "Leader" }

func execOnFake(server *Server, args ...string) string {
	c := connection.NewFakeConn()
	server.Exec(c, utils.ToCmdLine(args...))
	return string(c.Bytes())
}

func TestRaftGateNotInitialized(t *testing.T) {
	config.Properties.UseRaft = true
	defer func() { config.Properties.UseRaft = false }()

	server := NewServer()
	reply := execOnFake(server, "GET", "k")
	if !strings.Contains(reply, "raft node is not initialized") {
		t.Errorf("expected not initialized error, actual %s", reply)
	}

	server.SetRaftNode(&stubConsensus{initialized: false})
	reply = execOnFake(server, "SET", "k", "v")
	if !strings.Contains(reply, "raft node is not initialized") {
		t.Errorf("expected not initialized error, actual %s", reply)
	}
}

func TestRaftGateRedirect(t *testing.T) {
	config.Properties.UseRaft = true
	defer func() { config.Properties.UseRaft = false }()

	server := NewServer()
	server.SetRaftNode(&stubConsensus{initialized: true, leader: false, leaderAddr: "10.0.0.7:6399"})
	reply := execOnFake(server, "GET", "k")
	if !strings.HasPrefix(reply, "-MOVED 10.0.0.7:6399") {
		t.Errorf("expected moved redirect, actual %s", reply)
	}
}

func TestRaftGateClusterDown(t *testing.T) {
	config.Properties.UseRaft = true
	defer func() { config.Properties.UseRaft = false }()

	server := NewServer()
	server.SetRaftNode(&stubConsensus{initialized: true, leader: false, leaderAddr: ""})
	reply := execOnFake(server, "GET", "k")
	if !strings.HasPrefix(reply, "-CLUSTERDOWN No Raft leader") {
		t.Errorf("expected cluster down error, actual %s", reply)
	}
}

func TestRaftGateLeaderProposes(t *testing.T) {
	config.Properties.UseRaft = true
	defer func() { config.Properties.UseRaft = false }()

	server := NewServer()
	stub := &stubConsensus{initialized: true, leader: true}
	server.SetRaftNode(stub)

	reply := execOnFake(server, "SET", "k", "v")
	if !strings.HasPrefix(reply, "+OK") {
		t.Errorf("expected ok, actual %s", reply)
	}
	if len(stub.proposed) != 1 {
		t.Fatalf("expected 1 proposed cmdline, actual %d", len(stub.proposed))
	}
	if string(stub.proposed[0][0]) != "SET" {
		t.Errorf("unexpected proposed command: %q", stub.proposed[0][0])
	}
}

func TestRaftGateSkipsNonDataCommands(t *testing.T) {
	config.Properties.UseRaft = true
	defer func() { config.Properties.UseRaft = false }()

	// PING 不带读写标志，不经过一致性路由
	server := NewServer()
	reply := execOnFake(server, "PING")
	if !strings.HasPrefix(reply, "+PONG") {
		t.Errorf("expected pong, actual %s", reply)
	}
}

func TestReplaySkipsRaftGate(t *testing.T) {
	config.Properties.UseRaft = true
	defer func() { config.Properties.UseRaft = false }()

	server := NewServer()
	server.ApplyCmdLine(0, utils.ToCmdLine("SET", "replayed", "v"))

	config.Properties.UseRaft = false
	reply := execOnFake(server, "GET", "replayed")
	if !strings.Contains(reply, "v") {
		t.Errorf("replayed write should be visible, actual %s", reply)
	}
}

func TestUnknownCommand(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "NOSUCHCMD")
	if !strings.Contains(reply, "unknown command") {
		t.Errorf("expected unknown command error, actual %s", reply)
	}
}

func TestArgNumCheck(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "GET")
	if !strings.Contains(reply, "wrong number of arguments") {
		t.Errorf("expected arity error, actual %s", reply)
	}
}

func TestSharedLockReleasedAfterDoInitialFails(t *testing.T) {
	server := NewServer()
	// 未知子命令让 DoInitial 返回 false 提前终止
	reply := execOnFake(server, "CONFIG", "bogus")
	if !strings.Contains(reply, "unknown subcommand") {
		t.Errorf("expected unknown subcommand error, actual %s", reply)
	}
	// 共享锁已释放，排他命令不会卡死
	reply = execOnFake(server, "FLUSHDB")
	if !strings.HasPrefix(reply, "+OK") {
		t.Errorf("expected ok, actual %s", reply)
	}
}

func TestExclusiveCommandRuns(t *testing.T) {
	server := NewServer()
	execOnFake(server, "SET", "k", "v")
	reply := execOnFake(server, "FLUSHDB")
	if !strings.HasPrefix(reply, "+OK") {
		t.Errorf("expected ok, actual %s", reply)
	}
	reply = execOnFake(server, "GET", "k")
	if !strings.HasPrefix(reply, "$-1") {
		t.Errorf("expected null bulk after flush, actual %s", reply)
	}
}
