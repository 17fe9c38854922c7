package main

import (
	"fmt"
	"os"
	"print-calc/internal/service/calculation"
	"print-calc/internal/service/export"

	"github.com/spf13/cobra"
)

type calculateFlags struct {
	templateID int64
	quantity   int
	margin     float64
	tier       string
	xlsx       string
}

func newCalculateCmd(g *globalFlags) *cobra.Command {
	var f calculateFlags

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Price a template for a quantity",
		Long:  "Runs the calculation engine for one template and prints the result, including the debug report, as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd, g, f)
		},
	}

	cmd.Flags().Int64VarP(&f.templateID, "template", "t", 0, "Template ID (required)")
	cmd.Flags().IntVarP(&f.quantity, "quantity", "q", 0, "Quantity (required)")
	cmd.Flags().Float64Var(&f.margin, "margin", -1, "Margin percentage, default from the pricing policy")
	cmd.Flags().StringVar(&f.tier, "tier", "", "Speed tier, default from the pricing policy")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "Also write the result as an Excel workbook to this path")

	if err := cmd.MarkFlagRequired("template"); err != nil {
		panic(fmt.Sprintf("failed to mark template flag as required: %v", err))
	}
	if err := cmd.MarkFlagRequired("quantity"); err != nil {
		panic(fmt.Sprintf("failed to mark quantity flag as required: %v", err))
	}

	return cmd
}

func runCalculate(cmd *cobra.Command, g *globalFlags, f calculateFlags) error {
	ctx := cmd.Context()
	log := g.logger(cmd.ErrOrStderr())

	store, engine, err := g.open(log)
	if err != nil {
		return err
	}

	tpl, err := store.GetTemplateByID(ctx, f.templateID)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	req := calculation.Request{
		Template:  *tpl,
		Quantity:  f.quantity,
		Overrides: calculation.Overrides{SpeedTier: f.tier},
	}
	if f.margin >= 0 {
		req.MarginPercentage = &f.margin
	}

	res, calcErr := engine.Calculate(ctx, req)
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}

	if f.xlsx != "" && calcErr == nil {
		data, err := export.NewService().Workbook(res, fmt.Sprintf("%s, %d stuks", tpl.Name, f.quantity))
		if err != nil {
			return fmt.Errorf("failed to build workbook: %w", err)
		}
		if err := os.WriteFile(f.xlsx, data, 0o644); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
	}

	if calcErr != nil {
		return fmt.Errorf("calculation failed: %w", calcErr)
	}
	return nil
}
