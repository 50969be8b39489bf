package task

import "sort"

// Graph is an id-indexed adjacency view of the collection's dependency edges.
// Nodes live in an arena addressed by index so walks use explicit worklists
// and visited sets rather than recursion.
type Graph struct {
	ids   []string
	index map[string]int
	// deps[i] are the nodes task i depends on; rdeps[i] the nodes depending on i.
	deps  [][]int
	rdeps [][]int
}

// NewGraph builds the dependency graph for every task in the collection,
// archived tasks included. References to missing ids are ignored.
func NewGraph(c *Collection) *Graph {
	ids := c.IDs()
	g := &Graph{
		ids:   ids,
		index: make(map[string]int, len(ids)),
		deps:  make([][]int, len(ids)),
		rdeps: make([][]int, len(ids)),
	}
	for i, id := range ids {
		g.index[id] = i
	}
	for i, id := range ids {
		for _, dep := range c.Tasks[id].Dependencies {
			j, ok := g.index[dep]
			if !ok {
				continue
			}
			g.deps[i] = append(g.deps[i], j)
			g.rdeps[j] = append(g.rdeps[j], i)
		}
	}
	return g
}

// Dependents returns the ids that directly depend on id, sorted.
func (g *Graph) Dependents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.rdeps[i]))
	for _, j := range g.rdeps[i] {
		out = append(out, g.ids[j])
	}
	sort.Strings(out)
	return out
}

// DependentClosure returns root plus every task that transitively depends on
// it, in breadth-first order. A cycle reachable from root contributes each
// member once.
func (g *Graph) DependentClosure(root string) []string {
	start, ok := g.index[root]
	if !ok {
		return nil
	}
	visited := make([]bool, len(g.ids))
	visited[start] = true
	queue := []int{start}
	var out []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, g.ids[n])
		for _, m := range g.rdeps[n] {
			if !visited[m] {
				visited[m] = true
				queue = append(queue, m)
			}
		}
	}
	return out
}

// Reaches reports whether from transitively depends on to.
func (g *Graph) Reaches(from, to string) bool {
	start, ok := g.index[from]
	if !ok {
		return false
	}
	target, ok := g.index[to]
	if !ok {
		return false
	}
	visited := make([]bool, len(g.ids))
	stack := []int{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, g.deps[n]...)
	}
	return false
}

// CheckDependencies validates a proposed dependency set for id: every entry
// must exist, none may be id itself, and none may already depend on id.
func CheckDependencies(c *Collection, id string, deps []string) error {
	var g *Graph
	for _, dep := range deps {
		if dep == id {
			return &ValidationError{Field: "dependencies", Message: "a task cannot depend on itself"}
		}
		if _, ok := c.Tasks[dep]; !ok {
			return &ValidationError{Field: "dependencies", Message: "dependency " + dep + " does not exist"}
		}
		if id == "" {
			continue
		}
		if g == nil {
			g = NewGraph(c)
		}
		if g.Reaches(dep, id) {
			return &ValidationError{Field: "dependencies", Message: "dependency " + dep + " would create a cycle"}
		}
	}
	return nil
}
