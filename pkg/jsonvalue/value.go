// Package jsonvalue models a parsed JSON document as an explicit tagged union.
//
// Unlike decoding into interface{}, a Value keeps object members in the order
// they appeared in the source, and every consumer dispatches on Kind instead of
// relying on type switches over arbitrary Go types. Values are immutable once
// built; renderers build their own structures on top of them.
package jsonvalue

import "fmt"

// Kind identifies which variant of the union a Value holds.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	n       float64
	s       string
	elems   []Value
	members []Member
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// NumberValue wraps a number.
func NumberValue(f float64) Value { return Value{kind: Number, n: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// ArrayValue builds an array from elems. The slice is copied.
func ArrayValue(elems ...Value) Value {
	return Value{kind: Array, elems: append([]Value(nil), elems...)}
}

// ObjectValue builds an object from members in order. A repeated key keeps the
// position of its first occurrence and the value of its last one.
func ObjectValue(members ...Member) Value {
	b := newObjectBuilder(len(members))
	for _, m := range members {
		b.set(m.Key, m.Value)
	}
	return b.value()
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsContainer reports whether v is an array or an object.
func (v Value) IsContainer() bool { return v.kind == Array || v.kind == Object }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.b }

// Float returns the numeric payload; 0 for other kinds.
func (v Value) Float() float64 { return v.n }

// Str returns the string payload; "" for other kinds.
func (v Value) Str() string { return v.s }

// Len returns the number of elements or members; 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.elems)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Elem returns the i-th array element.
func (v Value) Elem(i int) Value { return v.elems[i] }

// Member returns the i-th object member.
func (v Value) Member(i int) Member { return v.members[i] }

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the object keys in order.
func (v Value) Keys() []string {
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Equal reports whether a and b are structurally equal, including member order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n || (a.n != a.n && b.n != b.n)
	case String:
		return a.s == b.s
	case Array:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

type objectBuilder struct {
	members []Member
	index   map[string]int
}

func newObjectBuilder(capacity int) *objectBuilder {
	return &objectBuilder{members: make([]Member, 0, capacity)}
}

func (b *objectBuilder) set(key string, val Value) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[key]; ok {
		b.members[i].Value = val
		return
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: val})
}

func (b *objectBuilder) value() Value {
	return Value{kind: Object, members: b.members}
}
