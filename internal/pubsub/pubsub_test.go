package pubsub

import "testing"

func TestSubscribePublishDeliver(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe("news")

	delivered := r.Publish("news", []byte("hello"))
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}

	select {
	case msg := <-sub.Outbox():
		if string(msg) != "hello" {
			t.Errorf("got %q, want %q", msg, "hello")
		}
	default:
		t.Fatal("expected message in outbox")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	r := NewRegistry()
	if n := r.Publish("nobody-home", []byte("x")); n != 0 {
		t.Fatalf("delivered = %d, want 0", n)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe("news")
	r.Unsubscribe("news", sub)

	if n := r.Publish("news", []byte("hello")); n != 0 {
		t.Fatalf("delivered = %d after unsubscribe, want 0", n)
	}
}

func TestPublishDropsOnFullOutbox(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe("firehose")

	for i := 0; i < outboxCapacity; i++ {
		if n := r.Publish("firehose", []byte("x")); n != 1 {
			t.Fatalf("publish %d: delivered = %d, want 1", i, n)
		}
	}

	// The outbox is now full; this publish must drop and close sub
	// rather than block.
	if n := r.Publish("firehose", []byte("overflow")); n != 0 {
		t.Fatalf("delivered = %d on overflow, want 0", n)
	}

	select {
	case <-sub.Done():
	default:
		t.Fatal("expected subscriber to be closed after outbox overflow")
	}
}

func TestSubscriberCloseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe("ch")
	sub.Close()
	sub.Close() // must not panic on double-close

	select {
	case <-sub.Done():
	default:
		t.Fatal("expected Done() closed")
	}
}

func TestChannelShardStable(t *testing.T) {
	const shardCount = 8
	got := ChannelShard("my-channel", shardCount)
	for i := 0; i < 10; i++ {
		if ChannelShard("my-channel", shardCount) != got {
			t.Fatal("ChannelShard is not stable across calls")
		}
	}
	if ChannelShard("x", 1) != 0 {
		t.Fatal("single-shard ChannelShard must always return 0")
	}
}
