package command

import (
	"strconv"

	"github.com/radartdb/radart/internal/respio"
	"github.com/radartdb/radart/internal/server"
	"github.com/radartdb/radart/internal/value"
)

// withHash runs fn against the Value at k, creating an empty Hash first
// if k is absent, and maps value.ErrWrongType to -WRONGTYPE. A hash
// drained to zero fields by fn is deleted outright, same as cmdDel.
func withHash(s *Session, w *respio.Writer, k []byte, create bool, fn func(*value.Value) server.Reply) (server.Reply, bool) {
	sh := s.Router.For(k)
	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		v, ok := sh.Engine.Get(k)
		if !ok {
			if !create {
				return server.Reply{Value: nil}
			}
			v = value.NewHash()
			sh.Engine.Set(k, v)
		}
		reply := fn(v)
		if n, err := v.HLen(); err == nil && n == 0 {
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

func hsetFields(s *Session, w *respio.Writer, args [][]byte) (created int64, ok bool) {
	k := args[1]
	for i := 2; i+1 < len(args); i += 2 {
		field, val := args[i], args[i+1]
		r, ok := withHash(s, w, k, true, func(v *value.Value) server.Reply {
			isNew, err := v.HSet(field, val)
			return server.Reply{Value: isNew, Err: err}
		})
		if !ok {
			return created, false
		}
		if r.Value.(bool) {
			created++
		}
	}
	return created, true
}

func cmdHSet(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return true, w.WriteError(errSyntax.Error())
	}
	created, ok := hsetFields(s, w, args)
	if !ok {
		return true, nil
	}
	return true, w.WriteInteger(created)
}

func cmdHMSet(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return true, w.WriteError(errSyntax.Error())
	}
	if _, ok := hsetFields(s, w, args); !ok {
		return true, nil
	}
	return true, w.WriteRaw(respio.ReplyOK)
}

func cmdHGet(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, field := args[1], args[2]
	r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
		val, found, err := v.HGet(field)
		if err != nil {
			return server.Reply{Err: err}
		}
		if !found {
			return server.Reply{Value: ([]byte)(nil)}
		}
		return server.Reply{Value: val}
	})
	if !ok {
		return true, nil
	}
	if r.Value == nil {
		return true, w.WriteRaw(respio.ReplyNil)
	}
	return true, w.WriteBulkString(r.Value.([]byte))
}

func cmdHGetAll(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
		pairs, err := v.HGetAll()
		return server.Reply{Value: pairs, Err: err}
	})
	if !ok {
		return true, nil
	}
	var pairs [][2][]byte
	if r.Value != nil {
		pairs = r.Value.([][2][]byte)
	}
	if err := w.WriteArrayHeader(len(pairs) * 2); err != nil {
		return true, err
	}
	for _, p := range pairs {
		if err := w.WriteBulkString(p[0]); err != nil {
			return true, err
		}
		if err := w.WriteBulkString(p[1]); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdHDel(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	var n int64
	for _, field := range args[2:] {
		r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
			removed, err := v.HDel(field)
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

func cmdHExists(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, field := args[1], args[2]
	r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
		_, found, err := v.HGet(field)
		return server.Reply{Value: found, Err: err}
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

func cmdHLen(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
		n, err := v.HLen()
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

func cmdHKeys(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
		keys, err := v.HKeys()
		return server.Reply{Value: keys, Err: err}
	})
	if !ok {
		return true, nil
	}
	var keys [][]byte
	if r.Value != nil {
		keys = r.Value.([][]byte)
	}
	if err := w.WriteArrayHeader(len(keys)); err != nil {
		return true, err
	}
	for _, f := range keys {
		if err := w.WriteBulkString(f); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdHVals(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
		vals, err := v.HVals()
		return server.Reply{Value: vals, Err: err}
	})
	if !ok {
		return true, nil
	}
	var vals [][]byte
	if r.Value != nil {
		vals = r.Value.([][]byte)
	}
	if err := w.WriteArrayHeader(len(vals)); err != nil {
		return true, err
	}
	for _, v := range vals {
		if err := w.WriteBulkString(v); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdHMGet(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	if err := w.WriteArrayHeader(len(args) - 2); err != nil {
		return true, err
	}
	for _, field := range args[2:] {
		r, ok := withHash(s, w, k, false, func(v *value.Value) server.Reply {
			val, found, err := v.HGet(field)
			if err != nil || !found {
				return server.Reply{Value: ([]byte)(nil), Err: err}
			}
			return server.Reply{Value: val}
		})
		if !ok {
			return true, nil
		}
		var b []byte
		if r.Value != nil {
			b = r.Value.([]byte)
		}
		if err := w.WriteBulkString(b); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdHIncrBy(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 4); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, field := args[1], args[2]
	n, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil {
		return true, writeNotInteger(w)
	}
	r, ok := withHash(s, w, k, true, func(v *value.Value) server.Reply {
		next, err := v.HIncrBy(field, n)
		return server.Reply{Value: next, Err: err}
	})
	if !ok {
		return true, nil
	}
	return true, w.WriteInteger(r.Value.(int64))
}
