package database

import (
	"strings"
	"testing"

	"raftis/config"
	"raftis/lib/utils"
	"raftis/redis/connection"
)

func TestPing(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "PING")
	if !strings.HasPrefix(reply, "+PONG") {
		t.Errorf("expected pong, actual %s", reply)
	}
	reply = execOnFake(server, "PING", "hello")
	if !strings.Contains(reply, "hello") {
		t.Errorf("expected echo, actual %s", reply)
	}
}

func TestAuth(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "AUTH", "secret")
	if !strings.Contains(reply, "no password is set") {
		t.Errorf("expected no password error, actual %s", reply)
	}

	config.Properties.RequirePass = "secret"
	defer func() { config.Properties.RequirePass = "" }()

	c := connection.NewFakeConn()
	server.Exec(c, utils.ToCmdLine("GET", "k"))
	if !strings.Contains(string(c.Bytes()), "NOAUTH") {
		t.Errorf("expected noauth, actual %s", c.Bytes())
	}
	c.Clean()

	server.Exec(c, utils.ToCmdLine("AUTH", "wrong"))
	if !strings.Contains(string(c.Bytes()), "invalid password") {
		t.Errorf("expected invalid password, actual %s", c.Bytes())
	}
	c.Clean()

	server.Exec(c, utils.ToCmdLine("AUTH", "secret"))
	if !strings.HasPrefix(string(c.Bytes()), "+OK") {
		t.Errorf("expected ok, actual %s", c.Bytes())
	}
	c.Clean()

	server.Exec(c, utils.ToCmdLine("GET", "k"))
	if strings.Contains(string(c.Bytes()), "NOAUTH") {
		t.Error("authenticated client should pass")
	}
}

func TestSelect(t *testing.T) {
	server := NewServer()
	c := connection.NewFakeConn()

	server.Exec(c, utils.ToCmdLine("SELECT", "1"))
	if !strings.HasPrefix(string(c.Bytes()), "+OK") {
		t.Errorf("expected ok, actual %s", c.Bytes())
	}
	if c.GetDBIndex() != 1 {
		t.Errorf("expected db 1, actual %d", c.GetDBIndex())
	}
	c.Clean()

	server.Exec(c, utils.ToCmdLine("SELECT", "99999"))
	if !strings.Contains(string(c.Bytes()), "out of range") {
		t.Errorf("expected out of range error, actual %s", c.Bytes())
	}
	c.Clean()

	server.Exec(c, utils.ToCmdLine("SELECT", "abc"))
	if !strings.Contains(string(c.Bytes()), "not an integer") {
		t.Errorf("expected integer error, actual %s", c.Bytes())
	}
}

func TestDatabasesAreIsolated(t *testing.T) {
	server := NewServer()
	c := connection.NewFakeConn()
	server.Exec(c, utils.ToCmdLine("SET", "k", "db0"))
	c.Clean()
	server.Exec(c, utils.ToCmdLine("SELECT", "1"))
	c.Clean()
	server.Exec(c, utils.ToCmdLine("GET", "k"))
	if !strings.HasPrefix(string(c.Bytes()), "$-1") {
		t.Errorf("db1 should not see db0 keys, actual %s", c.Bytes())
	}
}

func TestConfigGetSet(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "CONFIG", "get", "databases")
	if !strings.Contains(reply, "databases") {
		t.Errorf("expected databases entry, actual %s", reply)
	}

	reply = execOnFake(server, "CONFIG", "set", "maxclients", "100")
	if !strings.HasPrefix(reply, "+OK") {
		t.Errorf("expected ok, actual %s", reply)
	}
	if config.Properties.MaxClients != 100 {
		t.Errorf("expected maxclients 100, actual %d", config.Properties.MaxClients)
	}
	config.Properties.MaxClients = 0

	reply = execOnFake(server, "CONFIG", "set", "nosuchoption", "1")
	if !strings.Contains(reply, "Unknown option") {
		t.Errorf("expected unknown option error, actual %s", reply)
	}

	reply = execOnFake(server, "CONFIG", "get", "nosuchoption")
	if !strings.HasPrefix(reply, "*0") {
		t.Errorf("unknown option should reply an empty array, actual %s", reply)
	}
}

func TestConfigSubArity(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "CONFIG", "get")
	if !strings.Contains(reply, "wrong number of arguments") {
		t.Errorf("expected arity error, actual %s", reply)
	}
	reply = execOnFake(server, "CONFIG", "set", "port")
	if !strings.Contains(reply, "wrong number of arguments") {
		t.Errorf("expected arity error, actual %s", reply)
	}
}

func TestCommandListsDescriptors(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "COMMAND")
	if !strings.Contains(reply, "get") || !strings.Contains(reply, "blpop") {
		t.Errorf("command listing should contain registered commands, actual %s", reply)
	}
}

func TestInfo(t *testing.T) {
	server := NewServer()
	execOnFake(server, "SET", "k", "v")
	reply := execOnFake(server, "INFO")
	if !strings.Contains(reply, "raft_state:disabled") {
		t.Errorf("expected raft disabled, actual %s", reply)
	}
	if !strings.Contains(reply, "db0:keys=1") {
		t.Errorf("expected keyspace info, actual %s", reply)
	}
}

func TestRaftSubCommandsWithoutNode(t *testing.T) {
	server := NewServer()
	reply := execOnFake(server, "RAFT", "info")
	if !strings.Contains(reply, "raft node is not initialized") {
		t.Errorf("expected not initialized error, actual %s", reply)
	}
	reply = execOnFake(server, "RAFT", "bogus")
	if !strings.Contains(reply, "RAFT unknown subcommand for 'bogus'") {
		t.Errorf("expected unknown subcommand error, actual %s", reply)
	}
}
