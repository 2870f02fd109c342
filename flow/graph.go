package flow

import (
	"github.com/kbukum/flowkit/errors"
)

// Graph is the process network: which process outputs feed which inputs.
type Graph struct {
	Processes map[string]*ProcessDef
	Edges     []Edge
}

// Edge records that To consumes an output of From.
type Edge struct {
	From string
	To   string
}

// NewGraph builds an empty process network.
func NewGraph() *Graph {
	return &Graph{Processes: make(map[string]*ProcessDef)}
}

// AddProcess registers a process definition, rejecting malformed
// definitions and duplicate names.
func (g *Graph) AddProcess(def *ProcessDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := g.Processes[def.Name]; exists {
		return errors.InvalidInput("name", "duplicate process "+def.Name)
	}
	g.Processes[def.Name] = def
	return nil
}

// Connect records that to consumes an output of from.
func (g *Graph) Connect(from, to string) {
	g.Edges = append(g.Edges, Edge{From: from, To: to})
}

// BuildLevels groups processes by dependency level with Kahn's algorithm.
// Processes within a level have no data dependency on each other. It
// returns an error for edges naming unknown processes or for a cycle.
func (g *Graph) BuildLevels() ([][]string, error) {
	inDegree := make(map[string]int)
	consumers := make(map[string][]string)

	for name := range g.Processes {
		inDegree[name] = 0
	}

	for _, e := range g.Edges {
		if _, ok := g.Processes[e.From]; !ok {
			return nil, errors.InvalidInput("edge", "unknown process "+e.From)
		}
		if _, ok := g.Processes[e.To]; !ok {
			return nil, errors.InvalidInput("edge", "unknown process "+e.To)
		}
		inDegree[e.To]++
		consumers[e.From] = append(consumers[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, consumer := range consumers[name] {
				inDegree[consumer]--
				if inDegree[consumer] == 0 {
					next = append(next, consumer)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Processes) {
		return nil, errors.InvalidInput("edges", "cycle detected in process network")
	}

	return levels, nil
}
