// Package syntax describes the slice of a parsed grammar tree that the symbol
// table needs: token intervals for containment and textual spans for reporting.
package syntax

import (
	"fmt"
	"reflect"
)

// Interval is an inclusive range of token indices.
type Interval struct {
	Start int
	Stop  int
}

// InvalidInterval marks a node that covers no tokens.
var InvalidInterval = Interval{Start: -1, Stop: -2}

func (i Interval) Valid() bool {
	return i.Start >= 0 && i.Stop >= i.Start
}

func (i Interval) Length() int {
	if !i.Valid() {
		return 0
	}
	return i.Stop - i.Start + 1
}

// Contains reports whether other lies within i, bounds included.
func (i Interval) Contains(other Interval) bool {
	if !i.Valid() || !other.Valid() {
		return false
	}
	return i.Start <= other.Start && other.Stop <= i.Stop
}

// ProperlyContains is Contains minus equality: a node never properly contains
// itself or a node spanning exactly the same tokens.
func (i Interval) ProperlyContains(other Interval) bool {
	return i.Contains(other) && i != other
}

func (i Interval) String() string {
	return fmt.Sprintf("%d..%d", i.Start, i.Stop)
}

// Position is a zero-based row and column.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (p Position) Before(other Position) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Column < other.Column
}

// Range is a textual span. End is exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

// Node is what the external parser exposes per tree node.
type Node interface {
	Interval() Interval
	Range() Range
	Text() string
	ChildCount() int
	// Child returns nil when i is out of range.
	Child(i int) Node
}

// Definition is the reported location of a symbol.
type Definition struct {
	Range Range `json:"range"`
}

// DefinitionFor converts an anchor node to its reported definition. A nil
// node yields nil.
func DefinitionFor(node Node) *Definition {
	if IsNil(node) {
		return nil
	}
	return &Definition{Range: node.Range()}
}

// IsNil catches both a nil interface and a typed nil inside one. Adapters
// can implement IsNil themselves, for example when they wrap a node that may
// itself be missing.
func IsNil(node Node) bool {
	if node == nil {
		return true
	}
	if n, ok := node.(interface{ IsNil() bool }); ok {
		return n.IsNil()
	}
	v := reflect.ValueOf(node)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
