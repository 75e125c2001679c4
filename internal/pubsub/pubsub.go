// Package pubsub implements the channel-based publish/subscribe
// registry of spec.md 4.H: one registry per shard, a writer goroutine
// per subscribing connection, and non-blocking publish with a drop
// policy for slow subscribers.
package pubsub

import (
	"hash/maphash"
	"sync"
)

// outboxCapacity bounds each subscriber's pending-message queue; a
// subscriber that cannot keep up is unsubscribed and closed rather than allowed to
// apply backpressure to PUBLISH callers, per spec.md 4.H.
const outboxCapacity = 256

// channelSeed is shared across all hashes so ChannelShard is consistent
// for the lifetime of the process, the same pattern the retrieval pack's
// own maphash-based string hashing uses.
var channelSeed = maphash.MakeSeed()

// Subscriber is a single connection's view onto the registry: a channel
// of already-encoded RESP messages to forward to its socket, and a
// done channel closed once, either by the registry (full outbox) or by
// the connection itself on UNSUBSCRIBE.
type Subscriber struct {
	id       uint64
	out      chan []byte
	done     chan struct{}
	closeOne sync.Once
}

// Outbox returns the channel the connection's writer goroutine should
// drain.
func (s *Subscriber) Outbox() <-chan []byte { return s.out }

// Done returns a channel closed when this subscriber should stop being
// forwarded to its connection, whether dropped by the registry or
// unsubscribed explicitly.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Close marks the subscriber as finished; safe to call more than once
// or concurrently with the registry's own drop.
func (s *Subscriber) Close() {
	s.closeOne.Do(func() { close(s.done) })
}

// Registry tracks channel subscriptions for one shard.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*Subscriber
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[uint64]*Subscriber)}
}

// Subscribe registers a new Subscriber to channel and returns it.
func (r *Registry) Subscribe(channel string) *Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := &Subscriber{
		id:   r.nextID,
		out:  make(chan []byte, outboxCapacity),
		done: make(chan struct{}),
	}
	bucket, ok := r.subs[channel]
	if !ok {
		bucket = make(map[uint64]*Subscriber)
		r.subs[channel] = bucket
	}
	bucket[sub.id] = sub
	return sub
}

// Unsubscribe removes sub from channel.
func (r *Registry) Unsubscribe(channel string, sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.subs[channel]
	if !ok {
		return
	}
	delete(bucket, sub.id)
	if len(bucket) == 0 {
		delete(r.subs, channel)
	}
}

// Publish delivers message to every subscriber of channel, dropping
// (and closing) any subscriber whose outbox is full rather than
// blocking. It returns the number of subscribers the message was
// successfully queued to.
func (r *Registry) Publish(channel string, message []byte) int {
	r.mu.Lock()
	bucket := r.subs[channel]
	subs := make([]*Subscriber, 0, len(bucket))
	for _, s := range bucket {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	delivered := 0
	for _, s := range subs {
		select {
		case s.out <- message:
			delivered++
		default:
			r.drop(channel, s)
		}
	}
	return delivered
}

func (r *Registry) drop(channel string, sub *Subscriber) {
	r.Unsubscribe(channel, sub)
	sub.Close()
}

// channelBucket hashes a channel name, exposed for sharded deployments
// that want to pick a shard by channel name using the same hasher the
// command layer uses to pick a shard by key (spec.md 9).
func channelBucket(channel string, shardCount int) int {
	if shardCount <= 1 {
		return 0
	}
	var h maphash.Hash
	h.SetSeed(channelSeed)
	h.WriteString(channel)
	return int(h.Sum64() % uint64(shardCount))
}

// ChannelShard reports which of shardCount shards owns channel.
func ChannelShard(channel string, shardCount int) int {
	return channelBucket(channel, shardCount)
}
