package raft

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/hashicorp/raft"
)

type stubEngine struct {
	applied  []LogEntry
	snapshot []byte
	restored []byte
}

func (e *stubEngine) ApplyCmdLine(dbIndex int, cmdLine [][]byte) {
	e.applied = append(e.applied, LogEntry{DBIndex: dbIndex, CmdLine: cmdLine})
}

func (e *stubEngine) DumpRDB(w io.Writer) error {
	_, err := w.Write(e.snapshot)
	return err
}

func (e *stubEngine) LoadRDB(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	e.restored = data
	return nil
}

func mustMarshal(t *testing.T, entry *LogEntry) []byte {
	t.Helper()
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestApplySkipsOwnEntries(t *testing.T) {
	engine := &stubEngine{}
	fsm := &FSM{nodeID: "127.0.0.1:6399", engine: engine}

	// leader 在提案前已经执行过，自己的日志要跳过
	own := mustMarshal(t, &LogEntry{
		NodeID:  "127.0.0.1:6399",
		DBIndex: 0,
		CmdLine: [][]byte{[]byte("set"), []byte("k"), []byte("v")},
	})
	fsm.Apply(&raft.Log{Data: own})
	if len(engine.applied) != 0 {
		t.Fatal("own entry should be skipped")
	}

	other := mustMarshal(t, &LogEntry{
		NodeID:  "127.0.0.1:6400",
		DBIndex: 2,
		CmdLine: [][]byte{[]byte("set"), []byte("k"), []byte("v")},
	})
	fsm.Apply(&raft.Log{Data: other})
	if len(engine.applied) != 1 {
		t.Fatal("foreign entry should be applied")
	}
	if engine.applied[0].DBIndex != 2 || string(engine.applied[0].CmdLine[0]) != "set" {
		t.Errorf("unexpected applied entry: %v", engine.applied[0])
	}
}

func TestApplyMalformedEntry(t *testing.T) {
	engine := &stubEngine{}
	fsm := &FSM{nodeID: "n1", engine: engine}
	if result := fsm.Apply(&raft.Log{Data: []byte("not json")}); result == nil {
		t.Error("malformed entry should yield an error")
	}
	if len(engine.applied) != 0 {
		t.Error("malformed entry should not be applied")
	}
}

func TestLogEntryRoundTrip(t *testing.T) {
	entry := &LogEntry{
		NodeID:  "10.0.0.1:6399",
		DBIndex: 3,
		CmdLine: [][]byte{[]byte("rpush"), []byte("l"), []byte("a\r\nb")},
	}
	data := mustMarshal(t, entry)

	decoded := &LogEntry{}
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.NodeID != entry.NodeID || decoded.DBIndex != entry.DBIndex {
		t.Error("metadata mismatch after round trip")
	}
	if len(decoded.CmdLine) != 3 || !bytes.Equal(decoded.CmdLine[2], entry.CmdLine[2]) {
		t.Error("cmdline mismatch after round trip")
	}
}

type memorySink struct {
	bytes.Buffer
	canceled bool
}

func (s *memorySink) ID() string    { return "memory" }
func (s *memorySink) Cancel() error { s.canceled = true; return nil }
func (s *memorySink) Close() error  { return nil }

func TestSnapshotAndRestore(t *testing.T) {
	engine := &stubEngine{snapshot: []byte("rdb-bytes")}
	fsm := &FSM{nodeID: "n1", engine: engine}

	snapshot, err := fsm.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	sink := &memorySink{}
	if err := snapshot.Persist(sink); err != nil {
		t.Fatal(err)
	}
	if sink.String() != "rdb-bytes" {
		t.Errorf("unexpected snapshot content: %q", sink.String())
	}

	err = fsm.Restore(io.NopCloser(bytes.NewReader(sink.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if string(engine.restored) != "rdb-bytes" {
		t.Errorf("unexpected restored content: %q", engine.restored)
	}
}
