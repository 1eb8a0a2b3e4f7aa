package syntax

import "strings"

// Basic is an in-memory Node. Builders that do not sit on a real parser
// (manifests, tests) use it to produce anchors.
type Basic struct {
	interval Interval
	rng      Range
	text     string
	children []*Basic
}

func NewBasic(interval Interval, rng Range, text string) *Basic {
	return &Basic{interval: interval, rng: rng, text: text}
}

func (b *Basic) Interval() Interval { return b.interval }
func (b *Basic) Range() Range       { return b.rng }
func (b *Basic) ChildCount() int    { return len(b.children) }
func (b *Basic) IsNil() bool        { return b == nil }

func (b *Basic) Text() string {
	if b.text != "" || len(b.children) == 0 {
		return b.text
	}
	parts := make([]string, 0, len(b.children))
	for _, c := range b.children {
		parts = append(parts, c.Text())
	}
	return strings.Join(parts, " ")
}

func (b *Basic) Child(i int) Node {
	if i < 0 || i >= len(b.children) {
		return nil
	}
	return b.children[i]
}

// Add appends child and widens b to cover it.
func (b *Basic) Add(child *Basic) *Basic {
	b.children = append(b.children, child)
	if !b.interval.Valid() {
		b.interval = child.interval
		b.rng = child.rng
		return b
	}
	if child.interval.Start < b.interval.Start {
		b.interval.Start = child.interval.Start
		b.rng.Start = child.rng.Start
	}
	if child.interval.Stop > b.interval.Stop {
		b.interval.Stop = child.interval.Stop
		b.rng.End = child.rng.End
	}
	return b
}

// TreeBuilder hands out token indices in source order so that nodes built
// with it nest the way a parser's nodes would.
type TreeBuilder struct {
	next int
	row  int
	col  int
}

func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

// Token creates a single-token leaf at the current position and advances past
// it, leaving one column of whitespace.
func (tb *TreeBuilder) Token(text string) *Basic {
	start := Position{Row: tb.row, Column: tb.col}
	tb.col += len(text)
	end := Position{Row: tb.row, Column: tb.col}
	tb.col++
	leaf := NewBasic(Interval{Start: tb.next, Stop: tb.next}, Range{Start: start, End: end}, text)
	tb.next++
	return leaf
}

// TokenAt is Token with an explicit position, for callers that know where
// the text sits in the real file.
func (tb *TreeBuilder) TokenAt(text string, row, col int) *Basic {
	tb.row, tb.col = row, col
	return tb.Token(text)
}

// Newline moves to the start of the next row.
func (tb *TreeBuilder) Newline() {
	tb.row++
	tb.col = 0
}

// Node creates an interior node spanning children, which must already be in
// source order.
func (tb *TreeBuilder) Node(children ...*Basic) *Basic {
	n := NewBasic(InvalidInterval, Range{}, "")
	for _, c := range children {
		if c != nil {
			n.Add(c)
		}
	}
	return n
}

// Tokens returns how many token indices have been handed out.
func (tb *TreeBuilder) Tokens() int {
	return tb.next
}
