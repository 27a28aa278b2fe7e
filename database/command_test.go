package database

import (
	"strings"
	"testing"
	"time"

	"raftis/lib/utils"
	"raftis/redis/connection"
)

func TestCheckArg(t *testing.T) {
	exact := NewBaseCmd("get", 2, FlagReadonly, AclCategoryRead)
	if !exact.CheckArg(2) {
		t.Error("exact arity should accept the exact count")
	}
	if exact.CheckArg(1) || exact.CheckArg(3) {
		t.Error("exact arity should reject other counts")
	}

	atLeast := NewBaseCmd("del", -2, FlagWrite, AclCategoryWrite)
	if atLeast.CheckArg(1) {
		t.Error("negative arity should reject fewer args")
	}
	if !atLeast.CheckArg(2) || !atLeast.CheckArg(5) {
		t.Error("negative arity should accept at least |arity| args")
	}
}

func TestFlags(t *testing.T) {
	cmd := NewBaseCmd("probe", 1, FlagWrite, 0)
	if !cmd.HasFlag(FlagWrite) || cmd.HasFlag(FlagReadonly) {
		t.Error("initial flags wrong")
	}
	cmd.SetFlag(FlagFast)
	cmd.SetFlag(FlagFast)
	if !cmd.HasFlag(FlagFast) {
		t.Error("set flag failed")
	}
	cmd.ResetFlag(FlagWrite)
	if cmd.HasFlag(FlagWrite) {
		t.Error("reset flag failed")
	}
	if !cmd.HasFlag(FlagFast) {
		t.Error("reset should not touch other flags")
	}
}

func TestAclCategory(t *testing.T) {
	cmd := NewBaseCmd("probe", 1, 0, AclCategoryRead)
	cmd.AddAclCategory(AclCategoryKeyspace)
	if cmd.AclCategory()&AclCategoryRead == 0 || cmd.AclCategory()&AclCategoryKeyspace == 0 {
		t.Error("acl categories should accumulate")
	}
}

func TestCmdIDUnique(t *testing.T) {
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		cmd := NewBaseCmd("probe", 1, 0, 0)
		if seen[cmd.CmdID()] {
			t.Fatal("duplicated command id")
		}
		seen[cmd.CmdID()] = true
	}
}

func TestCmdGroupDispatch(t *testing.T) {
	group := NewCmdGroup("config", FlagAdmin)
	group.AddSubCmd(&configGetCmd{BaseCmd: NewBaseCmd("get", 3, FlagAdmin, AclCategoryAdmin)})

	if !group.HasSubCommand() {
		t.Error("group should report sub commands")
	}
	if group.GetSubCmd("get") == nil {
		t.Error("registered sub command should be found")
	}
	// 子命令匹配大小写敏感
	if group.GetSubCmd("GET") != nil {
		t.Error("sub command lookup should be case sensitive")
	}

	c := connection.NewFakeConn()
	c.SetArgv(utils.ToCmdLine("config", "get", "port"))
	if !group.DoInitial(c) {
		t.Error("known sub command should pass DoInitial")
	}
	if c.SubCmdName() != "get" {
		t.Errorf("expected sub command name get, actual %s", c.SubCmdName())
	}
}

func TestCmdGroupUnknownSub(t *testing.T) {
	group := NewCmdGroup("config", FlagAdmin)
	c := connection.NewFakeConn()
	c.SetArgv(utils.ToCmdLine("config", "bogus"))
	if group.DoInitial(c) {
		t.Error("unknown sub command should fail DoInitial")
	}
	_ = c.SendPacket()
	reply := string(c.Bytes())
	if !strings.Contains(reply, "config unknown subcommand for 'bogus'") {
		t.Errorf("unexpected error reply: %s", reply)
	}
}

func TestBlockedNodeIsExpired(t *testing.T) {
	never := &blockedConnNode{expireAt: 0}
	if never.IsExpired() {
		t.Error("zero expire time should never expire")
	}
	past := &blockedConnNode{expireAt: time.Now().Add(-time.Second).UnixMilli()}
	if !past.IsExpired() {
		t.Error("past expire time should be expired")
	}
	future := &blockedConnNode{expireAt: time.Now().Add(time.Hour).UnixMilli()}
	if future.IsExpired() {
		t.Error("future expire time should not be expired")
	}
}
