package parser

import (
	"bytes"
	"io"
	"testing"

	"raftis/interface/redis"
	"raftis/lib/utils"
	"raftis/protocol"
)

func TestParseStream(t *testing.T) {
	replies := []redis.Reply{
		protocol.MakeIntReply(1),
		protocol.MakeStatusReply("OK"),
		protocol.MakeErrReply("ERR unknown"),
		protocol.MakeBulkReply([]byte("a\r\nb")), // 二进制安全
		protocol.MakeNullBulkReply(),
		protocol.MakeMultiBulkReply([][]byte{
			[]byte("a"),
			[]byte("\r\n"),
		}),
		protocol.MakeEmptyMultiBulkReply(),
	}
	reqs := bytes.Buffer{}
	for _, re := range replies {
		reqs.Write(re.ToBytes())
	}
	reqs.Write([]byte("set a a" + protocol.CRLF)) // inline 命令

	expected := make([]redis.Reply, len(replies))
	copy(expected, replies)
	expected = append(expected, protocol.MakeMultiBulkReply(utils.ToCmdLine("set", "a", "a")))

	ch := ParseStream(bytes.NewReader(reqs.Bytes()))
	i := 0
	for payload := range ch {
		if payload.Err != nil {
			if payload.Err == io.EOF {
				break
			}
			t.Fatal(payload.Err)
		}
		if payload.Data == nil {
			t.Fatal("empty data")
		}
		if i >= len(expected) {
			t.Fatalf("unexpected extra payload: %q", payload.Data.ToBytes())
		}
		if !utils.BytesEquals(payload.Data.ToBytes(), expected[i].ToBytes()) {
			t.Errorf("expected %q, actual %q", expected[i].ToBytes(), payload.Data.ToBytes())
		}
		i++
	}
	if i != len(expected) {
		t.Errorf("expected %d payloads, actual %d", len(expected), i)
	}
}

func TestParseOne(t *testing.T) {
	replies := []redis.Reply{
		protocol.MakeIntReply(1),
		protocol.MakeStatusReply("OK"),
		protocol.MakeErrReply("ERR unknown"),
		protocol.MakeBulkReply([]byte("a\r\nb")),
		protocol.MakeNullBulkReply(),
		protocol.MakeMultiBulkReply([][]byte{
			[]byte("a"),
			[]byte("\r\n"),
		}),
		protocol.MakeEmptyMultiBulkReply(),
	}
	for _, re := range replies {
		result, err := ParseOne(re.ToBytes())
		if err != nil {
			t.Error(err)
			continue
		}
		if !utils.BytesEquals(result.ToBytes(), re.ToBytes()) {
			t.Errorf("expected %q, actual %q", re.ToBytes(), result.ToBytes())
		}
	}
}

func TestParseProtocolError(t *testing.T) {
	_, err := ParseOne([]byte("$abc\r\n"))
	if err == nil {
		t.Error("expected protocol error")
	}
}
