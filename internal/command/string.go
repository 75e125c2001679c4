package command

import (
	"strconv"
	"strings"

	"github.com/radartdb/radart/internal/respio"
	"github.com/radartdb/radart/internal/server"
	"github.com/radartdb/radart/internal/ttl"
	"github.com/radartdb/radart/internal/value"
)

func (s *Session) cmdGet(w *respio.Writer, args [][]byte) error {
	if err := arity(args, 2); err != nil {
		return w.WriteError(err.Error())
	}
	k := args[1]
	sh := s.Router.For(k)
	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		v, ok := sh.Engine.Get(k)
		if !ok {
			return server.Reply{Value: ([]byte)(nil)}
		}
		b, err := v.AsBytes()
		if err != nil {
			return server.Reply{Err: err}
		}
		return server.Reply{Value: b}
	})
	if r.Err != nil {
		return writeErr(w, r.Err)
	}
	return w.WriteBulkString(r.Value.([]byte))
}

type setOpts struct {
	deadline uint64
	hasNX    bool
	hasXX    bool
}

func parseSetOpts(clock *ttl.Clock, args [][]byte) (setOpts, error) {
	var o setOpts
	o.deadline = ttl.NoExpiration
	for i := 3; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "EX", "PX":
			millis := strings.ToUpper(string(args[i])) == "PX"
			if i+1 >= len(args) {
				return o, errSyntax
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return o, errSyntax
			}
			if !millis {
				n *= 1000
			}
			o.deadline = clock.Now() + uint64(n)
			i++
		case "NX":
			o.hasNX = true
		case "XX":
			o.hasXX = true
		default:
			return o, errSyntax
		}
	}
	if o.hasNX && o.hasXX {
		return o, errSyntax
	}
	return o, nil
}

func (s *Session) cmdSet(w *respio.Writer, args [][]byte) error {
	if err := arity(args, 3); err != nil {
		return w.WriteError(err.Error())
	}
	k, v := args[1], args[2]
	sh := s.Router.For(k)

	opts, err := parseSetOpts(sh.Clock, args)
	if err != nil {
		return w.WriteError(err.Error())
	}

	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		_, exists := sh.Engine.Get(k)
		if opts.hasNX && exists {
			return server.Reply{Value: false}
		}
		if opts.hasXX && !exists {
			return server.Reply{Value: false}
		}
		sh.Engine.SetWithDeadline(k, value.NewString(v), opts.deadline)
		return server.Reply{Value: true}
	})

	if !r.Value.(bool) {
		return w.WriteRaw(respio.ReplyNil)
	}
	return w.WriteRaw(respio.ReplyOK)
}

func cmdSetNX(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, v := args[1], args[2]
	sh := s.Router.For(k)
	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		if _, ok := sh.Engine.Get(k); ok {
			return server.Reply{Value: int64(0)}
		}
		sh.Engine.Set(k, value.NewString(v))
		return server.Reply{Value: int64(1)}
	})
	return true, w.WriteInteger(r.Value.(int64))
}

func cmdSetEX(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 4); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, secs, v := args[1], args[2], args[3]
	sh := s.Router.For(k)
	deadline, err := parseDeadline(sh.Clock, secs, false)
	if err != nil {
		return true, w.WriteError(err.Error())
	}
	sh.Submit(k, func(sh *server.Shard) server.Reply {
		sh.Engine.SetWithDeadline(k, value.NewString(v), deadline)
		return server.Reply{}
	})
	return true, w.WriteRaw(respio.ReplyOK)
}

func cmdMGet(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	if err := w.WriteArrayHeader(len(args) - 1); err != nil {
		return true, err
	}
	for _, k := range args[1:] {
		sh := s.Router.For(k)
		r := sh.Submit(k, func(sh *server.Shard) server.Reply {
			v, ok := sh.Engine.Get(k)
			if !ok || !v.IsStringFamily() {
				return server.Reply{Value: ([]byte)(nil)}
			}
			b, _ := v.AsBytes()
			return server.Reply{Value: b}
		})
		if err := w.WriteBulkString(r.Value.([]byte)); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdMSet(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if len(args) < 3 || len(args)%2 != 1 {
		return true, w.WriteError(errSyntax.Error())
	}
	for i := 1; i+1 < len(args); i += 2 {
		k, v := args[i], args[i+1]
		sh := s.Router.For(k)
		sh.Submit(k, func(sh *server.Shard) server.Reply {
			sh.Engine.Set(k, value.NewString(v))
			return server.Reply{}
		})
	}
	return true, w.WriteRaw(respio.ReplyOK)
}

func incrByCmd(s *Session, w *respio.Writer, k []byte, delta int64) (bool, error) {
	sh := s.Router.For(k)
	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		v, ok := sh.Engine.Get(k)
		if !ok {
			v = value.NewInt(0)
			sh.Engine.Set(k, v)
		}
		cur, err := v.AsInt()
		if err != nil {
			return server.Reply{Err: err}
		}
		next := cur + delta
		v.SetInt(next)
		return server.Reply{Value: next}
	})
	if r.Err != nil {
		return true, writeErr(w, r.Err)
	}
	return true, w.WriteInteger(r.Value.(int64))
}

func cmdIncr(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	return incrByCmd(s, w, args[1], 1)
}

func cmdDecr(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	return incrByCmd(s, w, args[1], -1)
}

func cmdIncrBy(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return true, writeNotInteger(w)
	}
	return incrByCmd(s, w, args[1], n)
}

func cmdDecrBy(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return true, writeNotInteger(w)
	}
	return incrByCmd(s, w, args[1], -n)
}
