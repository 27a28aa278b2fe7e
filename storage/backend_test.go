package storage

import (
	"strconv"
	"testing"

	"raftis/lib/utils"
)

func TestStringGetSet(t *testing.T) {
	backend := NewBackend(0)
	key := utils.RandString(10)
	value := utils.RandString(10)

	if _, status := backend.Get(key); !status.IsNotFound() {
		t.Error("expected not found for missing key")
	}
	if status := backend.Set(key, []byte(value)); !status.OK() {
		t.Error("set failed")
	}
	actual, status := backend.Get(key)
	if !status.OK() || string(actual) != value {
		t.Errorf("expected %s, actual %s", value, string(actual))
	}
}

func TestWrongType(t *testing.T) {
	backend := NewBackend(0)
	key := utils.RandString(10)
	backend.Set(key, []byte("value"))

	if _, status := backend.LPush(key, []byte("a")); !status.IsWrongType() {
		t.Error("expected wrong type on pushing to a string key")
	}
	if _, status := backend.LPop(key, 1); !status.IsWrongType() {
		t.Error("expected wrong type on popping a string key")
	}

	listKey := utils.RandString(10)
	backend.RPush(listKey, []byte("a"))
	if _, status := backend.Get(listKey); !status.IsWrongType() {
		t.Error("expected wrong type on getting a list key")
	}
}

func TestDelExists(t *testing.T) {
	backend := NewBackend(0)
	keys := make([]string, 3)
	for i := range keys {
		keys[i] = utils.RandString(10)
		backend.Set(keys[i], []byte(strconv.Itoa(i)))
	}
	if count := backend.Exists(keys...); count != 3 {
		t.Errorf("expected 3, actual %d", count)
	}
	if deleted := backend.Del(keys[0], keys[1], "missing"); deleted != 2 {
		t.Errorf("expected 2, actual %d", deleted)
	}
	if count := backend.Exists(keys...); count != 1 {
		t.Errorf("expected 1, actual %d", count)
	}
}

func TestPushPopOrder(t *testing.T) {
	backend := NewBackend(0)
	key := utils.RandString(10)

	length, status := backend.RPush(key, []byte("a"), []byte("b"), []byte("c"))
	if !status.OK() || length != 3 {
		t.Errorf("expected length 3, actual %d", length)
	}
	length, status = backend.LPush(key, []byte("x"))
	if !status.OK() || length != 4 {
		t.Errorf("expected length 4, actual %d", length)
	}

	// 现在的列表是 x a b c
	values, status := backend.LPop(key, 2)
	if !status.OK() || len(values) != 2 || string(values[0]) != "x" || string(values[1]) != "a" {
		t.Errorf("unexpected lpop result: %q", values)
	}
	values, status = backend.RPop(key, 1)
	if !status.OK() || string(values[0]) != "c" {
		t.Errorf("unexpected rpop result: %q", values)
	}

	length, status = backend.LLen(key)
	if !status.OK() || length != 1 {
		t.Errorf("expected length 1, actual %d", length)
	}
}

func TestPopDrainDeletesKey(t *testing.T) {
	backend := NewBackend(0)
	key := utils.RandString(10)
	backend.RPush(key, []byte("only"))

	if _, status := backend.LPop(key, 1); !status.OK() {
		t.Error("pop failed")
	}
	// 弹空后键被删除，再弹返回 NotFound
	if _, status := backend.LPop(key, 1); !status.IsNotFound() {
		t.Error("expected not found after draining the list")
	}
	if count := backend.Exists(key); count != 0 {
		t.Error("drained key should be removed")
	}
}

func TestLRange(t *testing.T) {
	backend := NewBackend(0)
	key := utils.RandString(10)
	backend.RPush(key, []byte("a"), []byte("b"), []byte("c"), []byte("d"))

	values, status := backend.LRange(key, 0, -1)
	if !status.OK() || len(values) != 4 {
		t.Errorf("expected 4 values, actual %d", len(values))
	}
	values, _ = backend.LRange(key, 1, 2)
	if len(values) != 2 || string(values[0]) != "b" || string(values[1]) != "c" {
		t.Errorf("unexpected range result: %q", values)
	}
	values, _ = backend.LRange(key, -2, -1)
	if len(values) != 2 || string(values[0]) != "c" {
		t.Errorf("unexpected negative range result: %q", values)
	}
	values, _ = backend.LRange(key, 10, 20)
	if len(values) != 0 {
		t.Error("out of range should be empty")
	}
}

func TestFlushAndForEach(t *testing.T) {
	backend := NewBackend(0)
	backend.Set("s", []byte("v"))
	backend.RPush("l", []byte("a"))

	visited := 0
	backend.ForEach(func(key string, obj *Object) bool {
		visited++
		return true
	})
	if visited != 2 {
		t.Errorf("expected 2 keys, actual %d", visited)
	}
	backend.Flush()
	if backend.Len() != 0 {
		t.Error("flush should empty the backend")
	}
}
