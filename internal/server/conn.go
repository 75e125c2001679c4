package server

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/radartdb/radart/internal/respio"
)

// Dispatcher is implemented by internal/command.Session; declared here
// to avoid server importing command (command already imports server for
// Router/Shard access).
type Dispatcher interface {
	Dispatch(w *respio.Writer, args [][]byte) (keepOpen bool, err error)
	MessageOutbox() <-chan []byte
	Close()
}

// ServeConn drives one client connection: it decodes RESP2 command
// frames, hands each to dispatch, and writes the reply, while
// concurrently draining dispatch's pub/sub push-message outbox onto the
// same socket. A per-connection panic is recovered, logged, and only
// closes this connection, per spec.md 7.
func ServeConn(conn net.Conn, dispatch Dispatcher, log *slog.Logger) {
	defer conn.Close()
	defer dispatch.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection panic", "remote", conn.RemoteAddr(), "panic", r)
		}
	}()

	br := bufio.NewReader(conn)
	bw := bufio.NewWriter(conn)
	reader := respio.NewReader(br)
	writer := respio.NewWriter(bw)

	// Dispatch replies and pub/sub push frames share one socket buffer;
	// a mutex keeps the interleaving of the two goroutines byte-atomic
	// per message instead of corrupting frames.
	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	go func() {
		outbox := dispatch.MessageOutbox()
		for {
			select {
			case <-done:
				return
			case msg := <-outbox:
				writeMu.Lock()
				_, werr := bw.Write(msg)
				if werr == nil {
					werr = bw.Flush()
				}
				writeMu.Unlock()
				if werr != nil {
					return
				}
			}
		}
	}()

	for {
		args, err := reader.ReadCommand()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, respio.ErrProtocol) {
				log.Warn("read error", "remote", conn.RemoteAddr(), "err", err)
			}
			return
		}

		writeMu.Lock()
		keepOpen, err := dispatch.Dispatch(writer, args)
		if err == nil {
			err = writer.Flush()
		}
		writeMu.Unlock()
		if err != nil {
			log.Warn("write error", "remote", conn.RemoteAddr(), "err", err)
			return
		}
		if !keepOpen {
			return
		}
	}
}
