package sourcectx

// DetectCycles returns every dependency cycle reachable in the graph, each as
// the list of contexts on the cycle in edge order.
func (g *Graph) DetectCycles() [][]ContextID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]ContextID
	visited := make(map[ContextID]bool)
	onStack := make(map[ContextID]bool)

	for _, c := range g.slots {
		if c != nil && !visited[c.ID] {
			g.findCycles(c.ID, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func (g *Graph) findCycles(curr ContextID, visited, onStack map[ContextID]bool, path []ContextID, cycles *[][]ContextID) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range sortedIDs(g.dependsOn[curr]) {
		if onStack[next] {
			for i, id := range path {
				if id == next {
					cycle := make([]ContextID, len(path)-i)
					copy(cycle, path[i:])
					*cycles = append(*cycles, cycle)
					break
				}
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// Reachable returns every context reachable from id through dependency
// edges, excluding id itself, in breadth-first order.
func (g *Graph) Reachable(id ContextID) []ContextID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []ContextID
	visited := map[ContextID]bool{id: true}
	queue := []ContextID{id}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range sortedIDs(g.dependsOn[curr]) {
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

// TransitiveDependents returns every context that directly or indirectly
// depends on id. A workspace uses it to know which tables to relink after a
// rebuild.
func (g *Graph) TransitiveDependents(id ContextID) []ContextID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []ContextID
	visited := map[ContextID]bool{id: true}
	queue := []ContextID{id}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, prev := range sortedIDs(g.dependents[curr]) {
			if visited[prev] {
				continue
			}
			visited[prev] = true
			out = append(out, prev)
			queue = append(queue, prev)
		}
	}
	return out
}
