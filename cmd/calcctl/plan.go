package main

import (
	"encoding/json"
	"fmt"
	"print-calc/internal/service/calculation"
	"print-calc/internal/service/planner"
	"print-calc/internal/storage"
	"time"

	"github.com/spf13/cobra"
)

type planFlags struct {
	orderID int64
	now     string
}

func newPlanCmd(g *globalFlags) *cobra.Command {
	var f planFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the production steps of an order",
		Long:  "Calculates the order's quote, accepts it and runs the planner against the in-memory store, then prints the production steps. Nothing is written back to the fixture file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, g, f)
		},
	}

	cmd.Flags().Int64VarP(&f.orderID, "order", "o", 0, "Order ID (required)")
	cmd.Flags().StringVar(&f.now, "now", "", "Planning clock for orders without a due date (RFC 3339)")

	if err := cmd.MarkFlagRequired("order"); err != nil {
		panic(fmt.Sprintf("failed to mark order flag as required: %v", err))
	}

	return cmd
}

type planOutput struct {
	OrderID int64                    `json:"orderId"`
	QuoteID int64                    `json:"quoteId"`
	Status  storage.OrderStatus      `json:"status"`
	Steps   []storage.ProductionStep `json:"steps"`
}

func runPlan(cmd *cobra.Command, g *globalFlags, f planFlags) error {
	ctx := cmd.Context()
	log := g.logger(cmd.ErrOrStderr())

	opts := planner.DefaultOptions()
	if f.now != "" {
		now, err := time.Parse(time.RFC3339, f.now)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		opts.Now = func() time.Time { return now }
	}

	store, engine, err := g.open(log)
	if err != nil {
		return err
	}

	order, err := store.GetOrderByID(ctx, f.orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order.Status == storage.OrderPlanned {
		return fmt.Errorf("order %d is already planned", order.ID)
	}

	quote, err := store.GetQuoteForOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load quote: %w", err)
	}

	res, err := engine.Calculate(ctx, calculation.Request{Template: *quote.Template, Quantity: quote.Quantity})
	if err != nil {
		return fmt.Errorf("calculation for quote %d failed: %w", quote.ID, err)
	}
	quote.CalculationResult, err = json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode calculation result: %w", err)
	}

	p := planner.New(log, opts)
	err = store.InTx(ctx, func(tx storage.Tx) error {
		locked, err := tx.LockOrderForPlanning(ctx, order.ID)
		if err != nil {
			return err
		}
		if quote.Status != storage.QuoteAccepted {
			if err := tx.AcceptQuote(ctx, quote.ID); err != nil {
				return err
			}
		}
		return p.PlanOrderWorkflow(ctx, tx, *locked, *quote)
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	updated, err := store.GetOrderByID(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to reload order: %w", err)
	}
	steps, err := store.GetProductionSteps(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load production steps: %w", err)
	}
	if steps == nil {
		steps = []storage.ProductionStep{}
	}

	return printJSON(cmd.OutOrStdout(), planOutput{
		OrderID: order.ID,
		QuoteID: quote.ID,
		Status:  updated.Status,
		Steps:   steps,
	})
}
