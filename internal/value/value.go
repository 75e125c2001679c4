// Package value implements the polymorphic Value model of spec.md 4.F: a
// tagged union over None/String/Int/Hash/Set/SortedSet with small-to-large
// promotion for the three collection kinds. Every ART leaf holds exactly
// one *Value; the cross-type "wrong kind" discipline required by commands
// lives here so the command layer never has to reach into a kind's
// internals directly.
package value

import (
	"errors"
	"strconv"
)

// Kind tags the variant currently held by a Value.
type Kind uint8

const (
	// KindNone is a transient tombstone used only during construction; it
	// must never be observable by a client (spec.md 3).
	KindNone Kind = iota
	KindString
	KindInt
	KindHash
	KindSet
	KindSortedSet
)

// ErrWrongType is returned by any accessor called against a Value of a
// different kind family, per spec.md 4.F's cross-type rule. The command
// layer renders this as -WRONGTYPE.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// ErrNotInteger is returned when a string-family value cannot be parsed as
// a base-10 integer for INCR/DECR-family commands.
var ErrNotInteger = errors.New("value is not an integer or out of range")

// Value is the tagged-union payload stored at an ART leaf.
type Value struct {
	kind Kind

	str []byte
	i64 int64

	hash *hashValue
	set  *setValue
	zset *zsetValue
}

// Kind reports the variant currently held.
func (v *Value) Kind() Kind { return v.kind }

// TypeName returns the RESP TYPE-command string for this value: "string"
// (covers both String and Int, the "string family" of spec.md 4.F),
// "hash", "set", "zset", or "none".
func (v *Value) TypeName() string {
	switch v.kind {
	case KindString, KindInt:
		return "string"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "zset"
	default:
		return "none"
	}
}

// NewString constructs a String-family value holding a raw byte string.
func NewString(b []byte) *Value {
	cp := append([]byte(nil), b...)
	return &Value{kind: KindString, str: cp}
}

// NewInt constructs an Int-family value.
func NewInt(i int64) *Value {
	return &Value{kind: KindInt, i64: i}
}

// AsBytes renders a String or Int value as its byte-string form (GET's
// view of the string family): String returns its content verbatim; Int is
// formatted as canonical decimal, per spec.md 4.F.
func (v *Value) AsBytes() ([]byte, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindInt:
		return []byte(strconv.FormatInt(v.i64, 10)), nil
	default:
		return nil, ErrWrongType
	}
}

// AsInt returns the integer value of a string-family Value, lazily parsing
// a String's bytes as decimal (INCR/DECR's view), per spec.md 4.F.
func (v *Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i64, nil
	case KindString:
		n, err := strconv.ParseInt(string(v.str), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		return n, nil
	default:
		return 0, ErrWrongType
	}
}

// SetInt overwrites a string-family Value in place with a new integer,
// canonicalizing its representation to Int (spec.md 4.F: "INCR/DECR...
// stores the canonical Int representation thereafter").
func (v *Value) SetInt(i int64) {
	v.kind = KindInt
	v.i64 = i
	v.str = nil
}

// IsStringFamily reports whether v is String or Int.
func (v *Value) IsStringFamily() bool {
	return v.kind == KindString || v.kind == KindInt
}
