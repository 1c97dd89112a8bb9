// Package script implements the bidirectional transform between Paradox-style
// script documents and a structured in-memory value tree: text normalization,
// stateful line parsing with variable/formula resolution, and the inverse
// serializer ("revert").
package script

import "strings"

// Value is the universal node type of a parsed document. Implementations are
// Bool, Int, Float, Str, *Block, *List, Operator, VarRef, FormulaRef and
// Comment; components switch exhaustively over these.
type Value interface {
	value()
}

// Bool is a yes/no scalar.
type Bool bool

// Int is an integer scalar.
type Int int64

// Float is a floating-point scalar.
type Float float64

// Str is a string scalar. Unknown or unparseable tokens degrade to Str rather
// than failing the parse.
type Str string

// Operator represents a key bound with a comparison operator other than plain
// equality, e.g. `trait_level >= 2`.
type Operator struct {
	Op    string
	Value Value
}

// VarRef is a reference to a named variable, keeping both the original
// textual form and its resolved value (nil when unknown).
type VarRef struct {
	Raw      string
	Resolved Value
}

// FormulaRef is an arithmetic `@[...]` expression, keeping the original text
// and the evaluated result (nil when evaluation failed).
type FormulaRef struct {
	Raw      string
	Resolved *float64
}

// Comment is a captured comment, only produced in comment-capture mode.
type Comment struct {
	Text string
}

func (Bool) value()       {}
func (Int) value()        {}
func (Float) value()      {}
func (Str) value()        {}
func (*Block) value()     {}
func (*List) value()      {}
func (Operator) value()   {}
func (VarRef) value()     {}
func (FormulaRef) value() {}
func (Comment) value()    {}

// Block is an insertion-ordered mapping from keys to values. Duplicate keys
// are never silently overwritten by the parser; they coerce to a *List.
type Block struct {
	keys   []string
	values map[string]Value
}

// NewBlock returns an empty block.
func NewBlock() *Block {
	return &Block{values: make(map[string]Value)}
}

// Get returns the value stored under key.
func (b *Block) Get(key string) (Value, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Set inserts or replaces a value, preserving first-insertion order.
func (b *Block) Set(key string, v Value) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
}

// Keys returns the keys in insertion order.
func (b *Block) Keys() []string {
	return b.keys
}

// Len returns the number of keys.
func (b *Block) Len() int {
	return len(b.keys)
}

// First returns the first inserted key/value pair.
func (b *Block) First() (string, Value, bool) {
	if len(b.keys) == 0 {
		return "", nil, false
	}
	return b.keys[0], b.values[b.keys[0]], true
}

// List is an ordered sequence of values, used both for bracketed lists and
// for coerced repeated-key collections.
type List struct {
	Items []Value
}

// NewList returns a list holding the given items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Append adds items to the end of the list.
func (l *List) Append(items ...Value) {
	l.Items = append(l.Items, items...)
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// Equal reports deep structural equality of two values.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Comment:
		bv, ok := b.(Comment)
		return ok && av == bv
	case Operator:
		bv, ok := b.(Operator)
		return ok && av.Op == bv.Op && Equal(av.Value, bv.Value)
	case VarRef:
		bv, ok := b.(VarRef)
		if !ok || av.Raw != bv.Raw {
			return false
		}
		if av.Resolved == nil || bv.Resolved == nil {
			return av.Resolved == nil && bv.Resolved == nil
		}
		return Equal(av.Resolved, bv.Resolved)
	case FormulaRef:
		bv, ok := b.(FormulaRef)
		if !ok || av.Raw != bv.Raw {
			return false
		}
		if av.Resolved == nil || bv.Resolved == nil {
			return av.Resolved == nil && bv.Resolved == nil
		}
		return *av.Resolved == *bv.Resolved
	case *Block:
		bv, ok := b.(*Block)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, key := range av.keys {
			if bv.keys[i] != key || !Equal(av.values[key], bv.values[key]) {
				return false
			}
		}
		return true
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	return false
}

// IsCommentKey reports whether a key is a synthetic comment marker emitted by
// the normalizer in comment-capture mode.
func IsCommentKey(key string) bool {
	return strings.HasPrefix(key, commentSigil)
}
