// Package sourcectx keeps the registry of grammar source contexts and the
// dependency edges between them. Tables refer to contexts by ContextID only.
package sourcectx

import (
	"sort"
	"sync"

	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/shared/observability"
)

// ContextID is a handle into a Graph. The zero value means "no owner".
type ContextID uint32

const NoContext ContextID = 0

// Context is the public view of one registered grammar file.
type Context struct {
	ID       ContextID
	SourceID string // stable file identifier, usually the absolute path
	FileName string // display name
}

type Graph struct {
	mu sync.RWMutex

	// slots[id-1]; removed contexts leave a nil slot so ids are never reused.
	slots    []*Context
	bySource map[string]ContextID

	dependsOn  map[ContextID]map[ContextID]bool // from -> to
	dependents map[ContextID]map[ContextID]bool // to -> from
}

func NewGraph() *Graph {
	return &Graph{
		bySource:   make(map[string]ContextID),
		dependsOn:  make(map[ContextID]map[ContextID]bool),
		dependents: make(map[ContextID]map[ContextID]bool),
	}
}

// Register returns the id for sourceID, creating it on first use. A repeated
// registration refreshes the display name.
func (g *Graph) Register(sourceID, fileName string) ContextID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.bySource[sourceID]; ok {
		g.slots[id-1].FileName = fileName
		return id
	}
	g.slots = append(g.slots, &Context{SourceID: sourceID, FileName: fileName})
	id := ContextID(len(g.slots))
	g.slots[id-1].ID = id
	g.bySource[sourceID] = id
	g.updateGaugesLocked()
	return id
}

func (g *Graph) contextLocked(id ContextID) *Context {
	if id == NoContext || int(id) > len(g.slots) {
		return nil
	}
	return g.slots[id-1]
}

func (g *Graph) Lookup(sourceID string) (ContextID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.bySource[sourceID]
	return id, ok
}

func (g *Graph) Context(id ContextID) (Context, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c := g.contextLocked(id)
	if c == nil {
		return Context{}, false
	}
	return *c, true
}

func (g *Graph) FileName(id ContextID) (string, bool) {
	c, ok := g.Context(id)
	return c.FileName, ok
}

func (g *Graph) SourceID(id ContextID) (string, bool) {
	c, ok := g.Context(id)
	return c.SourceID, ok
}

// AddDependency records that from imports (or takes its token vocabulary
// from) to. Self-dependencies are rejected.
func (g *Graph) AddDependency(from, to ContextID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.contextLocked(from) == nil {
		return domainerrors.AddContext(domainerrors.New(domainerrors.CodeNotFound, "unknown source context"), "id", from)
	}
	if g.contextLocked(to) == nil {
		return domainerrors.AddContext(domainerrors.New(domainerrors.CodeNotFound, "unknown source context"), "id", to)
	}
	if from == to {
		return domainerrors.AddContext(domainerrors.New(domainerrors.CodeConflict, "grammar cannot depend on itself"), domainerrors.CtxPath, g.slots[from-1].SourceID)
	}

	if g.dependsOn[from] == nil {
		g.dependsOn[from] = make(map[ContextID]bool)
	}
	g.dependsOn[from][to] = true
	if g.dependents[to] == nil {
		g.dependents[to] = make(map[ContextID]bool)
	}
	g.dependents[to][from] = true
	g.updateGaugesLocked()
	return nil
}

// RemoveDependency drops the edge in both directions. Unknown, removed or
// already detached ids are ignored.
func (g *Graph) RemoveDependency(from, to ContextID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeEdgeLocked(from, to)
	g.updateGaugesLocked()
}

func (g *Graph) removeEdgeLocked(from, to ContextID) {
	if targets := g.dependsOn[from]; targets != nil {
		delete(targets, to)
		if len(targets) == 0 {
			delete(g.dependsOn, from)
		}
	}
	if sources := g.dependents[to]; sources != nil {
		delete(sources, from)
		if len(sources) == 0 {
			delete(g.dependents, to)
		}
	}
}

// Dependencies lists what id depends on, in id order.
func (g *Graph) Dependencies(id ContextID) []ContextID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedIDs(g.dependsOn[id])
}

// Dependents lists the contexts that depend on id, in id order.
func (g *Graph) Dependents(id ContextID) []ContextID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedIDs(g.dependents[id])
}

func (g *Graph) HasDependency(from, to ContextID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dependsOn[from][to]
}

// Remove forgets id and every edge touching it.
func (g *Graph) Remove(id ContextID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.contextLocked(id)
	if c == nil {
		return
	}
	for to := range g.dependsOn[id] {
		g.removeEdgeLocked(id, to)
	}
	for from := range g.dependents[id] {
		g.removeEdgeLocked(from, id)
	}
	delete(g.bySource, c.SourceID)
	g.slots[id-1] = nil
	g.updateGaugesLocked()
}

// Contexts returns all live contexts in registration order.
func (g *Graph) Contexts() []Context {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Context, 0, len(g.bySource))
	for _, c := range g.slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.bySource)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCountLocked()
}

func (g *Graph) edgeCountLocked() int {
	n := 0
	for _, targets := range g.dependsOn {
		n += len(targets)
	}
	return n
}

func (g *Graph) updateGaugesLocked() {
	observability.ContextNodes.Set(float64(len(g.bySource)))
	observability.ContextEdges.Set(float64(g.edgeCountLocked()))
}

func sortedIDs(set map[ContextID]bool) []ContextID {
	if len(set) == 0 {
		return nil
	}
	out := make([]ContextID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
