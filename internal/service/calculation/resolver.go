package calculation

import (
	"fmt"
	"print-calc/internal/storage"
)

type HaltReason string

const (
	HaltNoOutgoingEdge  HaltReason = "no outgoing edge"
	HaltTargetMissing   HaltReason = "target node missing"
	HaltBudgetExhausted HaltReason = "hop budget exhausted"
)

// Path is a workflow graph linearized from Start towards Einde.
type Path struct {
	Steps      []storage.Node
	Complete   bool
	HaltReason HaltReason
	HaltNodeID string
	Trace      []DebugEntry
}

// Linearize walks the graph from its single Start node along the first outgoing edge of
// every node. The walk stops at Einde, at a node without an outgoing edge, at an edge
// whose target does not exist, or after len(nodes) hops. Only a missing graph, an empty
// node list or a Start count other than one is an error.
func Linearize(graph *storage.WorkflowGraph) (Path, error) {
	if graph == nil || len(graph.Nodes) == 0 {
		return Path{}, fmt.Errorf("%w: workflow has no nodes", ErrInvalidWorkflow)
	}

	byID := make(map[string]storage.Node, len(graph.Nodes))
	var starts []storage.Node
	for _, n := range graph.Nodes {
		if _, ok := byID[n.ID]; !ok {
			byID[n.ID] = n
		}
		if n.Data.Type == storage.NodeStart {
			starts = append(starts, n)
		}
	}

	switch len(starts) {
	case 0:
		return Path{}, fmt.Errorf("%w: no %s node", ErrInvalidWorkflow, storage.NodeStart)
	case 1:
	default:
		return Path{}, fmt.Errorf("%w: %d %s nodes", ErrInvalidWorkflow, len(starts), storage.NodeStart)
	}

	var path Path
	current := starts[0]
	budget := len(graph.Nodes)

	for hop := 0; hop < budget; hop++ {
		edge, ok := outgoing(graph.Edges, current.ID)
		if !ok {
			path.halt(HaltNoOutgoingEdge, current.ID, StatusWarning,
				fmt.Sprintf("node %q has no outgoing edge", current.ID))
			return path, nil
		}

		next, ok := byID[edge.Target]
		if !ok {
			path.halt(HaltTargetMissing, current.ID, StatusWarning,
				fmt.Sprintf("edge %s -> %s points to a missing node", edge.Source, edge.Target))
			return path, nil
		}

		current = next
		if current.Data.Type == storage.NodeEnd {
			path.Complete = true
			path.Trace = append(path.Trace, DebugEntry{
				Stage:   StageWorkflow,
				Message: fmt.Sprintf("reached %s after %d steps", storage.NodeEnd, len(path.Steps)),
				Status:  StatusOK,
			})
			return path, nil
		}

		path.Steps = append(path.Steps, current)
		path.Trace = append(path.Trace, DebugEntry{
			Stage:   StageWorkflow,
			Message: fmt.Sprintf("resolved %s node %q", current.Data.Type, current.Data.Label),
			Data:    map[string]any{"nodeId": current.ID, "order": len(path.Steps)},
			Status:  StatusInfo,
		})
	}

	path.halt(HaltBudgetExhausted, current.ID, StatusWarning,
		fmt.Sprintf("stopped after %d hops without reaching %s", budget, storage.NodeEnd))
	return path, nil
}

func (p *Path) halt(reason HaltReason, nodeID string, status Status, message string) {
	p.HaltReason = reason
	p.HaltNodeID = nodeID
	p.Trace = append(p.Trace, DebugEntry{
		Stage:   StageWorkflow,
		Message: message,
		Data:    map[string]any{"nodeId": nodeID, "reason": string(reason), "steps": len(p.Steps)},
		Status:  status,
	})
}

func outgoing(edges []storage.Edge, source string) (storage.Edge, bool) {
	for _, e := range edges {
		if e.Source == source {
			return e, true
		}
	}
	return storage.Edge{}, false
}
