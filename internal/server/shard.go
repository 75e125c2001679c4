// Package server wires the ART engine, TTL clock, and pub/sub registry
// into the sharded, single-threaded-per-shard concurrency model of
// spec.md section 5: each Shard owns its state exclusively and is driven
// by exactly one goroutine, fed by a command channel that per-connection
// reader goroutines write into.
package server

import (
	"hash/maphash"

	"github.com/radartdb/radart/internal/art"
	"github.com/radartdb/radart/internal/pubsub"
	"github.com/radartdb/radart/internal/ttl"
)

// request is one decoded command routed to its owning shard, carrying a
// reply channel the shard's goroutine uses to hand the result back to
// the connection that issued it.
type request struct {
	key   []byte // nil for key-less commands, e.g. DBSIZE
	run   func(*Shard) Reply
	reply chan Reply
}

// Reply is the outcome of running one command against a Shard: either a
// value to be RESP-encoded by the caller, or an error to surface as a
// RESP error reply.
type Reply struct {
	Value interface{}
	Err   error
}

// Shard is one single-threaded partition of the keyspace: its own ART
// engine, TTL clock, and pub/sub registry, never touched by any
// goroutine but its own run loop.
type Shard struct {
	Engine *art.Engine
	Clock  *ttl.Clock
	PubSub *pubsub.Registry

	SweepConfig ttl.SweepConfig

	inbox chan request
}

// NewShard constructs a Shard with a fresh engine, clock, and pub/sub
// registry.
func NewShard(clock *ttl.Clock, sweepCfg ttl.SweepConfig) *Shard {
	return NewShardWithPoolSize(clock, sweepCfg, 0)
}

// NewShardWithPoolSize is NewShard with an explicit node-slab
// pre-warming hint passed straight to art.NewEngineWithPoolSize;
// nodePoolSize<=0 falls back to the engine's default size.
func NewShardWithPoolSize(clock *ttl.Clock, sweepCfg ttl.SweepConfig, nodePoolSize int) *Shard {
	return &Shard{
		Engine:      art.NewEngineWithPoolSize(clock, nodePoolSize),
		Clock:       clock,
		PubSub:      pubsub.NewRegistry(),
		SweepConfig: sweepCfg,
		inbox:       make(chan request, 256),
	}
}

// Run is the shard's exclusive goroutine: it drains inbox until stop is
// closed, running each request's closure against this Shard's state and
// delivering the Reply back to its caller.
func (s *Shard) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case req := <-s.inbox:
			req.reply <- req.run(s)
		}
	}
}

// Submit routes run to this shard's goroutine and blocks for its Reply.
// key is recorded on the request but not otherwise used; the shard this
// request lands on is chosen by the caller (Router), not here.
func (s *Shard) Submit(key []byte, run func(*Shard) Reply) Reply {
	reply := make(chan Reply, 1)
	s.inbox <- request{key: key, run: run, reply: reply}
	return <-reply
}

// Router picks which Shard owns a given key by hashing it, per spec.md
// 9's "shard the ART by key-hash" guidance.
type Router struct {
	shards []*Shard
	seed   maphash.Seed
}

// NewRouter constructs a Router over shards.
func NewRouter(shards []*Shard) *Router {
	return &Router{shards: shards, seed: maphash.MakeSeed()}
}

// Shards returns every shard the router owns, for process-wide
// operations (KEYS, DBSIZE, FLUSHDB).
func (r *Router) Shards() []*Shard { return r.shards }

// For returns the Shard that owns key.
func (r *Router) For(key []byte) *Shard {
	if len(r.shards) == 1 {
		return r.shards[0]
	}
	var h maphash.Hash
	h.SetSeed(r.seed)
	h.Write(key)
	return r.shards[h.Sum64()%uint64(len(r.shards))]
}
