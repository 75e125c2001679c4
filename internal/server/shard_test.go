package server

import (
	"testing"

	"github.com/radartdb/radart/internal/art"
	"github.com/radartdb/radart/internal/ttl"
	"github.com/radartdb/radart/internal/value"
)

func TestSubmitRunsAgainstShardState(t *testing.T) {
	clock := ttl.NewClock(0)
	sh := NewShard(clock, ttl.DefaultSweepConfig())
	stop := make(chan struct{})
	go sh.Run(stop)
	defer close(stop)

	key := []byte("k")
	r := sh.Submit(key, func(sh *Shard) Reply {
		sh.Engine.Set(key, value.NewString([]byte("v")))
		v, ok := sh.Engine.Get(key)
		if !ok {
			return Reply{Err: art.ErrNotFound}
		}
		b, _ := v.AsBytes()
		return Reply{Value: b}
	})
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if string(r.Value.([]byte)) != "v" {
		t.Fatalf("got %q, want %q", r.Value, "v")
	}
}

func TestRouterSingleShardShortCircuit(t *testing.T) {
	sh := NewShard(ttl.NewClock(0), ttl.DefaultSweepConfig())
	router := NewRouter([]*Shard{sh})
	if router.For([]byte("anything")) != sh {
		t.Fatal("single-shard Router.For must always return the only shard")
	}
}

func TestRouterMultiShardConsistentRouting(t *testing.T) {
	shards := []*Shard{
		NewShard(ttl.NewClock(0), ttl.DefaultSweepConfig()),
		NewShard(ttl.NewClock(0), ttl.DefaultSweepConfig()),
		NewShard(ttl.NewClock(0), ttl.DefaultSweepConfig()),
	}
	router := NewRouter(shards)

	key := []byte("stable-key")
	first := router.For(key)
	for i := 0; i < 10; i++ {
		if router.For(key) != first {
			t.Fatal("Router.For must route the same key to the same shard every time")
		}
	}
}

func TestRouterShardsReturnsAll(t *testing.T) {
	shards := []*Shard{
		NewShard(ttl.NewClock(0), ttl.DefaultSweepConfig()),
		NewShard(ttl.NewClock(0), ttl.DefaultSweepConfig()),
	}
	router := NewRouter(shards)
	if len(router.Shards()) != 2 {
		t.Fatalf("Shards() returned %d, want 2", len(router.Shards()))
	}
}
