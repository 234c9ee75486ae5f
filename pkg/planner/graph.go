package planner

// tarjanState is the working state of one run of Tarjan's strongly
// connected components algorithm over a directed graph given as an
// adjacency list. Edge u -> v means "u depends on v" throughout this
// package.
type tarjanState struct {
	adj     map[string][]string
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

// tarjanSCC returns the strongly connected components of the graph
// described by adj, restricted to and ordered by nodes. A component
// with a single node and no self-loop is a trivial (acyclic) component;
// anything else — a self-loop or a multi-node cycle — is a defer
// cluster (§4.6).
func tarjanSCC(nodes []string, adj map[string][]string) [][]string {
	st := &tarjanState{
		adj:     adj,
		index:   map[string]int{},
		low:     map[string]int{},
		onStack: map[string]bool{},
	}
	for _, n := range nodes {
		if _, seen := st.index[n]; !seen {
			st.strongConnect(n)
		}
	}
	return st.sccs
}

func (s *tarjanState) strongConnect(v string) {
	s.index[v] = s.counter
	s.low[v] = s.counter
	s.counter++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	for _, w := range s.adj[v] {
		if _, seen := s.index[w]; !seen {
			s.strongConnect(w)
			if s.low[w] < s.low[v] {
				s.low[v] = s.low[w]
			}
		} else if s.onStack[w] {
			if s.index[w] < s.low[v] {
				s.low[v] = s.index[w]
			}
		}
	}

	if s.low[v] == s.index[v] {
		var comp []string
		for {
			n := len(s.stack) - 1
			w := s.stack[n]
			s.stack = s.stack[:n]
			s.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		s.sccs = append(s.sccs, comp)
	}
}

// hasSelfLoop reports whether adj contains an edge from v to itself.
func hasSelfLoop(adj map[string][]string, v string) bool {
	for _, w := range adj[v] {
		if w == v {
			return true
		}
	}
	return false
}

// topoSortComponents returns a permutation of component indices [0,len(sccs))
// such that for every condensation edge c -> d (c depends on d, recorded in
// compDeps[c][d]), d appears before c. Among components that become ready at
// the same step, the one containing the earliest entity in minIndex is
// chosen first — the "input order" tie-break from §4.6.
func topoSortComponents(sccs [][]string, compDeps []map[int]bool, entityIndex map[string]int) []int {
	n := len(sccs)

	minIndex := make([]int, n)
	for c, comp := range sccs {
		m := entityIndex[comp[0]]
		for _, name := range comp {
			if idx := entityIndex[name]; idx < m {
				m = idx
			}
		}
		minIndex[c] = m
	}

	// dependents[d] = set of components that depend on d, i.e. the reverse
	// of compDeps, used to decrement remaining counts as components finish.
	dependents := make([]map[int]bool, n)
	for i := range dependents {
		dependents[i] = map[int]bool{}
	}
	remaining := make([]int, n)
	for c := 0; c < n; c++ {
		remaining[c] = len(compDeps[c])
		for d := range compDeps[c] {
			dependents[d][c] = true
		}
	}

	done := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		best := -1
		for c := 0; c < n; c++ {
			if done[c] || remaining[c] > 0 {
				continue
			}
			if best == -1 || minIndex[c] < minIndex[best] {
				best = c
			}
		}
		if best == -1 {
			// Unreachable by construction: compDeps is the condensation of
			// an SCC decomposition, which is always acyclic.
			break
		}
		order = append(order, best)
		done[best] = true
		for dep := range dependents[best] {
			remaining[dep]--
		}
	}
	return order
}
