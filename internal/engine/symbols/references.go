package symbols

// ReferenceCounter counts uses of names. Declarations register a name with
// a zero count so unused declarations can be reported.
type ReferenceCounter struct {
	order  []string
	counts map[string]int
}

func NewReferenceCounter() *ReferenceCounter {
	return &ReferenceCounter{counts: make(map[string]int)}
}

func (c *ReferenceCounter) Declare(name string) {
	if _, ok := c.counts[name]; ok {
		return
	}
	c.order = append(c.order, name)
	c.counts[name] = 0
}

func (c *ReferenceCounter) Increment(name string) {
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *ReferenceCounter) Count(name string) int {
	return c.counts[name]
}

// Unreferenced lists names with a zero count in first-seen order.
func (c *ReferenceCounter) Unreferenced() []string {
	var out []string
	for _, name := range c.order {
		if c.counts[name] == 0 {
			out = append(out, name)
		}
	}
	return out
}

func (c *ReferenceCounter) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

func (c *ReferenceCounter) Len() int {
	return len(c.order)
}

func (c *ReferenceCounter) Reset() {
	c.order = nil
	c.counts = make(map[string]int)
}

func (t *Table) ReferenceCount(name string) int {
	return t.refs.Count(name)
}

func (t *Table) IncrementSymbolRefCount(name string) {
	t.refs.Increment(name)
}

func (t *Table) UnreferencedSymbols() []string {
	return t.refs.Unreferenced()
}
