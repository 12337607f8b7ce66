package usecases

import (
	stderrors "errors"
	"fmt"
	"sort"
)

var errCycle = stderrors.New("cycle detected")

// topoSort returns node indices so that every node comes after its
// dependencies. Among ready nodes the smallest index goes first, so the
// order is stable for a given input.
func topoSort(n int, deps func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i := range n {
		for _, d := range deps(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("node %d depends on unknown node %d", i, d)
			}
			indegree[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	var ready []int
	for i := range n {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)

		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) != n {
		return nil, errCycle
	}
	return order, nil
}
