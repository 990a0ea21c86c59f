package sampler

import "sort"

// maxOrderPasses bounds the fixed-point iteration in ResolveOrder. Any
// resolvable graph converges in at most len(graph) passes, but in practice
// real table sets resolve within a handful; a small constant keeps a
// malformed graph from spinning.
const maxOrderPasses = 5

// ResolveOrder computes a total order over the attributes in graph such that
// every attribute appears strictly after all attributes it depends on.
//
// The order is seeded with the dependency-free attributes and then grown by
// fixed-point iteration: each pass appends every not-yet-ordered attribute
// whose dependencies are all already present. Attributes are enumerated in
// sorted name order within a pass, so the result is reproducible for a given
// graph and ties among simultaneously-eligible attributes break
// alphabetically.
//
// Returns a DependencyCycleError if the graph fails to converge within the
// pass limit, which means it is cyclic or references an attribute that is
// not a key of the graph.
func ResolveOrder(graph map[string][]string) ([]string, error) {
	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	order := make([]string, 0, len(graph))
	ordered := make(map[string]bool, len(graph))

	appendAttr := func(name string) {
		order = append(order, name)
		ordered[name] = true
	}

	// Seed with attributes that condition on nothing.
	for _, name := range names {
		if len(graph[name]) == 0 {
			appendAttr(name)
		}
	}

	for pass := 0; pass < maxOrderPasses; pass++ {
		for _, name := range names {
			if ordered[name] {
				continue
			}
			met := true
			for _, dep := range graph[name] {
				if !ordered[dep] {
					met = false
					break
				}
			}
			if met {
				appendAttr(name)
			}
		}
		if len(order) == len(graph) {
			return order, nil
		}
	}

	var unresolved []string
	for _, name := range names {
		if !ordered[name] {
			unresolved = append(unresolved, name)
		}
	}
	return nil, &DependencyCycleError{Unresolved: unresolved, Passes: maxOrderPasses}
}
