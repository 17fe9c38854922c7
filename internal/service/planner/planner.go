// Package planner turns an accepted quote into production steps for an order.
package planner

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"print-calc/internal/storage"
	"slices"
	"time"
)

// Tx is the part of the order transaction the planner writes through. The caller owns
// the transaction and decides whether to commit.
type Tx interface {
	FindCompanyOwner(ctx context.Context, companyID int64, role string) (*storage.User, error)
	CreateProductionSteps(ctx context.Context, orderID int64, steps []storage.ProductionStep) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status storage.OrderStatus) error
}

type Options struct {
	LeadBusinessDays      int
	FallbackDurationHours float64
	OwnerRole             string
	Now                   func() time.Time
}

func DefaultOptions() Options {
	return Options{
		LeadBusinessDays:      5,
		FallbackDurationHours: 1.0,
		OwnerRole:             storage.RoleOwner,
		Now:                   time.Now,
	}
}

type Planner struct {
	log  *slog.Logger
	opts Options
}

func New(log *slog.Logger, opts Options) *Planner {
	def := DefaultOptions()
	if opts.FallbackDurationHours <= 0 {
		opts.FallbackDurationHours = def.FallbackDurationHours
	}
	if opts.OwnerRole == "" {
		opts.OwnerRole = def.OwnerRole
	}
	if opts.LeadBusinessDays < 0 {
		opts.LeadBusinessDays = 0
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}

	return &Planner{log: log, opts: opts}
}

// PlanOrderWorkflow creates the production steps of order from the accepted quote and
// moves the order to PLANNED. Orders that cannot be planned automatically are moved to
// ON_HOLD instead; that is not an error. Storage errors are returned unchanged in kind
// so the caller can roll back.
func (p *Planner) PlanOrderWorkflow(ctx context.Context, tx Tx, order storage.Order, quote storage.Quote) error {
	const op = "service.planner.PlanOrderWorkflow"

	log := p.log.With(slog.String("op", op), slog.Int64("order_id", order.ID), slog.Int64("quote_id", quote.ID))

	if quote.Template == nil || quote.Template.WorkflowDefinition == nil || len(quote.Template.WorkflowDefinition.Nodes) == 0 {
		return p.hold(ctx, tx, log, order, "workflow definition missing")
	}

	owner, err := tx.FindCompanyOwner(ctx, order.CompanyID, p.opts.OwnerRole)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return p.hold(ctx, tx, log, order, "company has no "+p.opts.OwnerRole)
		}
		return fmt.Errorf("%s: поиск ответственного: %w", op, err)
	}

	durations, err := Durations(quote.CalculationResult)
	if err != nil {
		log.Warn("calculation result unreadable, using fallback durations", slog.String("error", err.Error()))
	}

	steps := p.BuildSteps(log, order.ID, *quote.Template.WorkflowDefinition, durations)
	if len(steps) == 0 {
		return p.hold(ctx, tx, log, order, "workflow has no production steps")
	}

	start := p.StartDate(order)
	for i := range steps {
		if steps[i].ResourceID == nil {
			continue
		}
		startDate := start
		resourceID := *steps[i].ResourceID
		userID := owner.ID

		steps[i].PlannedStartDate = &startDate
		steps[i].AssignedResourceID = &resourceID
		steps[i].AssignedUserID = &userID
		steps[i].Status = storage.StepPlanned
	}

	all := make([]storage.ProductionStep, 0, len(steps)+1)
	all = append(all, storage.ProductionStep{
		OrderID: order.ID,
		Title:   storage.NodeStart,
		Order:   0,
		Status:  storage.StepCompleted,
	})
	all = append(all, steps...)

	if err := tx.CreateProductionSteps(ctx, order.ID, all); err != nil {
		return fmt.Errorf("%s: создание этапов производства: %w", op, err)
	}

	if err := tx.UpdateOrderStatus(ctx, order.ID, storage.OrderPlanned); err != nil {
		return fmt.Errorf("%s: обновление статуса заказа: %w", op, err)
	}

	log.Info("order planned",
		slog.Int("steps", len(all)),
		slog.Time("start_date", start),
		slog.Int64("assignee_id", owner.ID),
	)

	return nil
}

func (p *Planner) hold(ctx context.Context, tx Tx, log *slog.Logger, order storage.Order, reason string) error {
	if err := tx.UpdateOrderStatus(ctx, order.ID, storage.OrderOnHold); err != nil {
		return fmt.Errorf("service.planner.hold: %w", err)
	}

	log.Info("order needs manual planning", slog.String("reason", reason))
	return nil
}

// BuildSteps orders the non terminal nodes by their vertical position and turns them into
// unscheduled production steps numbered from 1.
func (p *Planner) BuildSteps(log *slog.Logger, orderID int64, graph storage.WorkflowGraph, durations map[string]float64) []storage.ProductionStep {
	nodes := make([]storage.Node, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		if !n.IsTerminal() {
			nodes = append(nodes, n)
		}
	}

	slices.SortStableFunc(nodes, func(a, b storage.Node) int {
		return cmp.Compare(a.Position.Y, b.Position.Y)
	})

	steps := make([]storage.ProductionStep, 0, len(nodes))
	for i, n := range nodes {
		hours, ok := durations[n.ID]
		if !ok || hours <= 0 {
			log.Warn("no computed duration for step, using fallback",
				slog.String("node_id", n.ID),
				slog.Float64("fallback_hours", p.opts.FallbackDurationHours),
			)
			hours = p.opts.FallbackDurationHours
		}

		resType, _ := n.ResourceType()

		steps = append(steps, storage.ProductionStep{
			OrderID:              orderID,
			Title:                n.Data.Label,
			Notes:                n.Data.Notes,
			Order:                i + 1,
			ResourceID:           n.Data.ResourceID,
			ResourceType:         resType,
			PlannedDurationHours: hours,
			Status:               storage.StepPending,
		})
	}

	return steps
}

// StartDate is the due date minus the lead time in business days, or now without a
// due date.
func (p *Planner) StartDate(order storage.Order) time.Time {
	if order.DueDate == nil {
		return p.opts.Now()
	}
	return SubtractBusinessDays(*order.DueDate, p.opts.LeadBusinessDays)
}

func SubtractBusinessDays(t time.Time, days int) time.Time {
	for days > 0 {
		t = t.AddDate(0, 0, -1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days--
		}
	}
	return t
}

// Durations reads lines[0].calculationDetails.durations out of a stored calculation
// result. An empty document yields an empty map.
func Durations(raw json.RawMessage) (map[string]float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]float64{}, nil
	}

	var doc struct {
		Lines []struct {
			CalculationDetails struct {
				Durations map[string]float64 `json:"durations"`
			} `json:"calculationDetails"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return map[string]float64{}, fmt.Errorf("decode calculation result: %w", err)
	}

	if len(doc.Lines) == 0 || doc.Lines[0].CalculationDetails.Durations == nil {
		return map[string]float64{}, nil
	}

	return doc.Lines[0].CalculationDetails.Durations, nil
}
