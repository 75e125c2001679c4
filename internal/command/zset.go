package command

import (
	"strconv"
	"strings"

	"github.com/radartdb/radart/internal/respio"
	"github.com/radartdb/radart/internal/server"
	"github.com/radartdb/radart/internal/value"
)

func withZSet(s *Session, w *respio.Writer, k []byte, create bool, fn func(*value.Value) server.Reply) (server.Reply, bool) {
	sh := s.Router.For(k)
	r := sh.Submit(k, func(sh *server.Shard) server.Reply {
		v, ok := sh.Engine.Get(k)
		if !ok {
			if !create {
				return server.Reply{Value: nil}
			}
			v = value.NewSortedSet()
			sh.Engine.Set(k, v)
		}
		reply := fn(v)
		if n, err := v.ZCard(); err == nil && n == 0 {
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

func cmdZAdd(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return true, w.WriteError(errSyntax.Error())
	}
	k := args[1]
	var added int64
	for i := 2; i+1 < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return true, writeNotInteger(w)
		}
		member := args[i+1]
		r, ok := withZSet(s, w, k, true, func(v *value.Value) server.Reply {
			isNew, err := v.ZAdd(member, score)
			return server.Reply{Value: isNew, Err: err}
		})
		if !ok {
			return true, nil
		}
		if r.Value.(bool) {
			added++
		}
	}
	return true, w.WriteInteger(added)
}

func cmdZCard(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	r, ok := withZSet(s, w, k, false, func(v *value.Value) server.Reply {
		n, err := v.ZCard()
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

func cmdZRange(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 4); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	start, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return true, writeNotInteger(w)
	}
	stop, err := strconv.Atoi(string(args[3]))
	if err != nil {
		return true, writeNotInteger(w)
	}
	withScores := len(args) >= 5 && strings.EqualFold(string(args[4]), "WITHSCORES")

	r, ok := withZSet(s, w, k, false, func(v *value.Value) server.Reply {
		entries, err := v.ZRange(start, stop)
		return server.Reply{Value: entries, Err: err}
	})
	if !ok {
		return true, nil
	}
	var entries []value.ZRangeEntry
	if r.Value != nil {
		entries = r.Value.([]value.ZRangeEntry)
	}

	n := len(entries)
	if withScores {
		n *= 2
	}
	if err := w.WriteArrayHeader(n); err != nil {
		return true, err
	}
	for _, e := range entries {
		if err := w.WriteBulkString(e.Member); err != nil {
			return true, err
		}
		if withScores {
			if err := w.WriteBulkString([]byte(formatScore(e.Score))); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cmdZScore(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k, member := args[1], args[2]
	r, ok := withZSet(s, w, k, false, func(v *value.Value) server.Reply {
		score, found, err := v.ZScore(member)
		if err != nil || !found {
			return server.Reply{Value: nil, Err: err}
		}
		return server.Reply{Value: score}
	})
	if !ok {
		return true, nil
	}
	if r.Value == nil {
		return true, w.WriteRaw(respio.ReplyNil)
	}
	return true, w.WriteBulkString([]byte(formatScore(r.Value.(float64))))
}

func cmdZRem(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	var n int64
	for _, member := range args[2:] {
		r, ok := withZSet(s, w, k, false, func(v *value.Value) server.Reply {
			removed, err := v.ZRem(member)
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

func cmdZIncrBy(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 4); err != nil {
		return true, w.WriteError(err.Error())
	}
	k := args[1]
	delta, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		return true, writeNotInteger(w)
	}
	member := args[3]
	r, ok := withZSet(s, w, k, true, func(v *value.Value) server.Reply {
		next, err := v.ZIncrBy(member, delta)
		return server.Reply{Value: next, Err: err}
	})
	if !ok {
		return true, nil
	}
	return true, w.WriteBulkString([]byte(formatScore(r.Value.(float64))))
}
