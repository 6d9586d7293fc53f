package kv

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreInvalidURL(t *testing.T) {
	if _, err := NewRedisStore("not a url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestSetPrimitives(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, member := range []string{"a", "b", "a"} {
		if err := store.SAdd(ctx, "set", member); err != nil {
			t.Fatalf("SAdd(%q) failed: %v", member, err)
		}
	}

	n, err := store.SCard(ctx, "set")
	if err != nil {
		t.Fatalf("SCard failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected cardinality 2, got %d", n)
	}

	ok, err := store.SIsMember(ctx, "set", "b")
	if err != nil || !ok {
		t.Errorf("SIsMember(b) = %v, %v; want true, nil", ok, err)
	}
	ok, err = store.SIsMember(ctx, "set", "c")
	if err != nil || ok {
		t.Errorf("SIsMember(c) = %v, %v; want false, nil", ok, err)
	}

	members, err := store.SMembers(ctx, "set")
	if err != nil {
		t.Fatalf("SMembers failed: %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "a" || members[1] != "b" {
		t.Errorf("unexpected members: %v", members)
	}
}

func TestHashPrimitives(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	if err := store.HSet(ctx, "h", "f1", "v1"); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}

	got, err := store.HGet(ctx, "h", "f1")
	if err != nil || got != "v1" {
		t.Errorf("HGet(f1) = %q, %v; want v1, nil", got, err)
	}

	got, err = store.HGet(ctx, "h", "missing")
	if err != nil || got != "" {
		t.Errorf("HGet(missing) = %q, %v; want empty, nil", got, err)
	}

	n, err := store.HLen(ctx, "nope")
	if err != nil || n != 0 {
		t.Errorf("HLen(nope) = %d, %v; want 0, nil", n, err)
	}
}

func TestListPrimitives(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, v := range []string{"one", "two", "three"} {
		if err := store.RPush(ctx, "list", v); err != nil {
			t.Fatalf("RPush failed: %v", err)
		}
	}

	items, err := store.LRange(ctx, "list", 0, -1)
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}
	if len(items) != 3 || items[0] != "one" || items[2] != "three" {
		t.Errorf("unexpected range: %v", items)
	}

	value, ok, err := store.LPop(ctx, "list")
	if err != nil || !ok || value != "one" {
		t.Errorf("LPop = %q, %v, %v; want one, true, nil", value, ok, err)
	}

	n, err := store.LLen(ctx, "list")
	if err != nil || n != 2 {
		t.Errorf("LLen = %d, %v; want 2, nil", n, err)
	}

	_, ok, err = store.LPop(ctx, "empty")
	if err != nil || ok {
		t.Errorf("LPop(empty) ok = %v, err = %v; want false, nil", ok, err)
	}
}

func TestScanPrefix(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	s.HSet("repos::a/b", "userName", "a")
	s.HSet("repos::a/c", "userName", "a")
	s.HSet("other::x", "k", "v")
	if _, err := s.SetAdd("repos", "repos::a/b"); err != nil {
		t.Fatalf("seed set: %v", err)
	}

	keys, err := store.ScanPrefix(ctx, "repos::")
	if err != nil {
		t.Fatalf("ScanPrefix failed: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "repos::a/b" || keys[1] != "repos::a/c" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestAtomic(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	err := store.Atomic(ctx, func(b Batch) {
		b.SAdd("registry", "item")
		b.HSet("item", "name", "widget")
		b.HSet("item", "size", "large")
	})
	if err != nil {
		t.Fatalf("Atomic failed: %v", err)
	}

	if ok, _ := s.SIsMember("registry", "item"); !ok {
		t.Error("expected registry membership")
	}
	if got := s.HGet("item", "size"); got != "large" {
		t.Errorf("expected size=large, got %q", got)
	}
}

func TestUnavailableBackend(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()
	s.Close()

	checks := map[string]func() error{
		"SAdd":   func() error { return store.SAdd(ctx, "s", "m") },
		"HGet":   func() error { _, err := store.HGet(ctx, "h", "f"); return err },
		"LLen":   func() error { _, err := store.LLen(ctx, "l"); return err },
		"Atomic": func() error { return store.Atomic(ctx, func(b Batch) { b.HSet("h", "f", "v") }) },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			err := fn()
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestRejectedCommand(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()
	if err := s.Set("plain", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	checks := map[string]func() error{
		"HGet":   func() error { _, err := store.HGet(ctx, "plain", "f"); return err },
		"Atomic": func() error { return store.Atomic(ctx, func(b Batch) { b.HSet("plain", "f", "v") }) },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			err := fn()
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("expected ErrRejected, got %v", err)
			}
			if errors.Is(err, ErrUnavailable) {
				t.Fatalf("a WRONGTYPE reply is not an outage: %v", err)
			}
		})
	}
}
