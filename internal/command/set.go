package command

import (
	"strconv"

	"github.com/radartdb/radart/internal/respio"
	"github.com/radartdb/radart/internal/server"
	"github.com/radartdb/radart/internal/value"
)

func withSet(s *Session, w *respio.Writer, k []byte, create bool, fn func(*value.Value) server.Reply) (server.Reply, bool) {
	sh := s.Router.For(k)
	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		v, ok := sh.Engine.Get(k)
		if !ok {
			if !create {
				return server.Reply{Value: nil}
			}
			v = value.NewSet()
			sh.Engine.Set(k, v)
		}
		reply := fn(v)
		if n, err := v.SCard(); err == nil && n == 0 {
			sh.Engine.Delete(k)
		}
		return reply
	})
	if r.Err != nil {
		writeErr(w, r.Err)
		return r, false
	}
	return r, true
}

func cmdSAdd(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	var n int64
	for _, m := range args[2:] {
		r, ok := withSet(s, w, k, true, func(v *value.Value) server.Reply {
			added, err := v.SAdd(m)
			return server.Reply{Value: added, Err: err}
		})
		if !ok {
			return true, nil
		}
		if r.Value.(bool) {
			n++
		}
	}
	return true, w.WriteInteger(n)
}

func cmdSRem(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	var n int64
	for _, m := range args[2:] {
		r, ok := withSet(s, w, k, false, func(v *value.Value) server.Reply {
			removed, err := v.SRem(m)
			return server.Reply{Value: removed, Err: err}
		})
		if !ok {
			return true, nil
		}
		if r.Value != nil && r.Value.(bool) {
			n++
		}
	}
	return true, w.WriteInteger(n)
}

func cmdSIsMember(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, m := args[1], args[2]
	r, ok := withSet(s, w, k, false, func(v *value.Value) server.Reply {
		isMember, err := v.SIsMember(m)
		return server.Reply{Value: isMember, Err: err}
	})
	if !ok {
		return true, nil
	}
	n := int64(0)
	if r.Value != nil && r.Value.(bool) {
		n = 1
	}
	return true, w.WriteInteger(n)
}

func cmdSCard(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withSet(s, w, k, false, func(v *value.Value) server.Reply {
		n, err := v.SCard()
		return server.Reply{Value: n, Err: err}
	})
	if !ok {
		return true, nil
	}
	if r.Value == nil {
		return true, w.WriteInteger(0)
	}
	return true, w.WriteInteger(int64(r.Value.(int)))
}

func cmdSMembers(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withSet(s, w, k, false, func(v *value.Value) server.Reply {
		members, err := v.SMembers()
		return server.Reply{Value: members, Err: err}
	})
	if !ok {
		return true, nil
	}
	var members [][]byte
	if r.Value != nil {
		members = r.Value.([][]byte)
	}
	if err := w.WriteArrayHeader(len(members)); err != nil {
		return true, err
	}
	for _, m := range members {
		if err := w.WriteBulkString(m); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdSPop(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	count := 1
	if len(args) >= 3 {
		n, err := strconv.Atoi(string(args[2]))
		if err != nil {
			return true, w.WriteError(errSyntax.Error())
		}
		count = n
	}
	k := args[1]
	r, ok := withSet(s, w, k, false, func(v *value.Value) server.Reply {
		popped, err := v.SPop(count)
		return server.Reply{Value: popped, Err: err}
	})
	if !ok {
		return true, nil
	}
	var popped [][]byte
	if r.Value != nil {
		popped = r.Value.([][]byte)
	}
	if len(args) < 3 {
		if len(popped) == 0 {
			return true, w.WriteRaw(respio.ReplyNil)
		}
		return true, w.WriteBulkString(popped[0])
	}
	if err := w.WriteArrayHeader(len(popped)); err != nil {
		return true, err
	}
	for _, m := range popped {
		if err := w.WriteBulkString(m); err != nil {
			return true, err
		}
	}
	return true, nil
}
