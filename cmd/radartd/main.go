// Command radartd is the process entrypoint for the ART-based RESP2 key
// value engine: it parses flags, wires one Shard per configured
// partition, starts the TTL ticker and active-eviction loop, and accepts
// RESP2 connections (spec.md 6's process surface).
package main

import (
	"flag"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/radartdb/radart/internal/command"
	"github.com/radartdb/radart/internal/server"
	"github.com/radartdb/radart/internal/ttl"
)

func main() {
	addr := flag.String("addr", ":6379", "TCP address to listen on")
	shardCount := flag.Int("shards", 1, "number of key-hash shards")
	nodePoolSize := flag.Int("node-pool", 0, "pre-warmed ART node-slab capacity per shard (0: grow on demand from a small default)")
	ttlTick := flag.Duration("ttl-tick", 100*time.Millisecond, "TTL clock advance interval")
	evictSample := flag.Int("evict-sample", 20, "active-eviction sample size per round")
	evictThreshold := flag.Float64("evict-threshold", 0.25, "active-eviction continuation threshold")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	sweepCfg := ttl.SweepConfig{SampleSize: *evictSample, Threshold: *evictThreshold, MaxRounds: 16}
	clock := ttl.NewClock(0)

	shards := make([]*server.Shard, *shardCount)
	for i := range shards {
		shards[i] = server.NewShardWithPoolSize(clock, sweepCfg, *nodePoolSize)
	}
	router := server.NewRouter(shards)

	stop := make(chan struct{})
	defer close(stop)
	for _, sh := range shards {
		go sh.Run(stop)
	}

	go runTTLLoop(clock, shards, *ttlTick, stop)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Error("listen failed", "addr", *addr, "err", err)
		os.Exit(1)
	}
	defer ln.Close()
	log.Info("radartd listening", "addr", *addr, "shards", *shardCount, "node-pool", *nodePoolSize)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Error("accept failed", "err", err)
			continue
		}
		go func() {
			session := command.NewSession(router)
			server.ServeConn(conn, session, log)
		}()
	}
}

// runTTLLoop advances the shared clock and runs each shard's active
// eviction sweep, on its own goroutine per shard so one shard's sweep
// never blocks another's command processing.
func runTTLLoop(clock *ttl.Clock, shards []*server.Shard, tick time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			clock.Advance(uint64(tick / time.Millisecond))
			for _, sh := range shards {
				sh := sh
				sh.Submit(nil, func(sh *server.Shard) server.Reply {
					sh.Engine.Sweep(sh.SweepConfig)
					return server.Reply{}
				})
			}
		}
	}
}
