package meshsim

import "sort"

// Chunk is a set of module node ids that share a dependency depth. Members
// declare no dependency on one another, so the execution engine may run them
// in any order or in parallel. Chunk boundaries are synchronization barriers.
type Chunk []int

// Schedule partitions the graph into ordered chunks using iterative
// Kahn-style level scheduling: at each iteration every node with zero
// remaining in-edges forms the next layer, then those nodes and their
// outgoing edges are removed. The chunk count therefore equals the length of
// the longest dependency chain among modules.
//
// Each node's ChunkIndex is its layer, so for every edge the producer's
// ChunkIndex is strictly less than the consumer's. Sources have no
// requirements and always land in layer 0. The returned sequence contains
// module nodes only; a layer holding nothing but sources is omitted. The
// partition is deterministic for a given graph; member order within a chunk
// is not part of the contract.
func Schedule(g *Graph) ([]Chunk, error) {
	indegree := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		indegree[e.To]++
	}

	var frontier []int
	for id := range g.Nodes {
		if indegree[id] == 0 {
			frontier = append(frontier, id)
		}
	}

	var chunks []Chunk
	scheduled := 0
	for level := 0; len(frontier) > 0; level++ {
		var chunk Chunk
		for _, id := range frontier {
			g.Nodes[id].ChunkIndex = level
			if g.Nodes[id].Kind == KindModule {
				chunk = append(chunk, id)
			}
		}
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}

		scheduled += len(frontier)
		var next []int
		for _, id := range frontier {
			for _, ei := range g.out[id] {
				to := g.Edges[ei].To
				indegree[to]--
				if indegree[to] == 0 {
					next = append(next, to)
				}
			}
		}
		frontier = next
	}

	if scheduled != len(g.Nodes) {
		// Residual nodes all sit on (or downstream of) at least one cycle.
		var names []string
		for id, n := range g.Nodes {
			if indegree[id] > 0 {
				names = append(names, n.Name)
			}
		}
		sort.Strings(names)
		return nil, &CycleError{Modules: names}
	}
	return chunks, nil
}
