package parameter

// DetectCycles walks the conditional-dependency graph formed by each
// Parameter's Condition.Parameter edge and reports the first cycle found,
// via a recursive DFS that marks each parameter visiting/done and keeps
// the current path (parameters rarely nest more than a few levels deep,
// so recursion depth isn't a practical concern; the visiting/done marks
// keep the walk terminating).
func DetectCycles(parameters []Parameter) error {
	edges := make(map[string]string, len(parameters))
	for _, p := range parameters {
		if p.Condition != nil {
			edges[p.Name] = p.Condition.Parameter
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(edges))

	var path []string
	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case done:
			return nil
		case visiting:
			// Found the back-edge; return the cycle starting from name.
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			return cycle
		}

		state[name] = visiting
		path = append(path, name)

		if next, ok := edges[name]; ok {
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for name := range edges {
		if state[name] == unvisited {
			if cycle := visit(name); cycle != nil {
				return CircularDependency(cycle)
			}
		}
	}
	return nil
}
