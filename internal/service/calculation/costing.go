package calculation

import (
	"fmt"
	"print-calc/internal/storage"
)

const DefaultSpeedTier = "Standaard"

type OutcomeKind string

const (
	OutcomePriced  OutcomeKind = "priced"
	OutcomeSkipped OutcomeKind = "skipped"
)

// StepOutcome is either a priced step or a skipped one; a skipped step never carries
// cost or time, so a free step and a broken one stay distinguishable.
type StepOutcome struct {
	Kind   OutcomeKind
	Node   storage.Node
	Priced *PricedStep
	Skip   *SkippedStep
}

type PricedStep struct {
	ResourceID     int64   `json:"resourceId"`
	ResourceName   string  `json:"resourceName"`
	Rate           float64 `json:"costPerHour"`
	Speed          float64 `json:"speed"`
	SpeedDefaulted bool    `json:"speedDefaulted,omitempty"`
	RunHours       float64 `json:"runHours"`
	SetupHours     float64 `json:"setupHours"`
	TimeHours      float64 `json:"time"`
	Cost           float64 `json:"cost"`
}

type SkippedStep struct {
	NodeID     string `json:"nodeId"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	ResourceID *int64 `json:"resourceId,omitempty"`
	Reason     string `json:"reason"`
	// ERROR for a dangling resource reference, WARNING otherwise
	Severity Status `json:"severity"`
}

// PriceStep converts one resolved workflow node into time and cost. res is the record the
// node's resourceId resolved to, nil if it could not be found.
func PriceStep(node storage.Node, res *storage.Resource, quantity int, tier string) StepOutcome {
	if _, ok := node.ResourceType(); !ok {
		return skipped(node, StatusWarning, fmt.Sprintf("node type %q is not priced", node.Data.Type))
	}
	if node.Data.ResourceID == nil {
		return skipped(node, StatusWarning, "no resource linked to step")
	}
	if res == nil {
		return skipped(node, StatusError, fmt.Sprintf("%s resource %d not found", node.Data.Type, *node.Data.ResourceID))
	}

	p := &PricedStep{ResourceID: res.ID, ResourceName: res.Name}

	p.Rate = res.CostPerHour
	if res.CostingProfile.CostPerHour != nil {
		p.Rate = *res.CostingProfile.CostPerHour
	}

	if res.CostingProfile.SetupMinutes != nil {
		p.SetupHours = *res.CostingProfile.SetupMinutes / 60
	}

	p.Speed = 1
	p.SpeedDefaulted = true
	if s, ok := res.CostingProfile.Speeds[tier]; ok && s.Value > 0 {
		p.Speed = s.Value
		p.SpeedDefaulted = false
	}

	p.RunHours = float64(quantity) / p.Speed
	p.TimeHours = p.RunHours + p.SetupHours
	p.Cost = p.TimeHours * p.Rate

	return StepOutcome{Kind: OutcomePriced, Node: node, Priced: p}
}

func skipped(node storage.Node, severity Status, reason string) StepOutcome {
	return StepOutcome{
		Kind: OutcomeSkipped,
		Node: node,
		Skip: &SkippedStep{
			NodeID:     node.ID,
			Label:      node.Data.Label,
			Type:       node.Data.Type,
			ResourceID: node.Data.ResourceID,
			Reason:     reason,
			Severity:   severity,
		},
	}
}
