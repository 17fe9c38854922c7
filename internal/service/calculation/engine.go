package calculation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"print-calc/internal/service/imposition"
	"print-calc/internal/storage"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidWorkflow  = errors.New("invalid workflow definition")
	ErrMaterialNotFound = errors.New("material not found")
	ErrInvalidRequest   = errors.New("invalid calculation request")
	// ErrInvalidLayout: изделие не раскладывается на материал, это ошибка настройки шаблона
	ErrInvalidLayout = errors.New("product cannot be imposed on material")
	ErrCrash            = errors.New("calculation crashed")
)

type CalcStorage interface {
	FindResourceByID(ctx context.Context, resourceType storage.ResourceType, id int64) (*storage.Resource, error)
	FindMaterialByID(ctx context.Context, id int64) (*storage.Material, error)
}

type ImpositionService interface {
	Compute(ctx context.Context, req imposition.Request) (imposition.Result, error)
}

type Engine struct {
	log         *slog.Logger
	storage     CalcStorage
	impositions ImpositionService
	policy      Policy
	concurrency int
}

func NewEngine(log *slog.Logger, storage CalcStorage, impositions ImpositionService, policy Policy, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy.SpeedTier == "" {
		policy.SpeedTier = DefaultSpeedTier
	}

	return &Engine{
		log:         log,
		storage:     storage,
		impositions: impositions,
		policy:      policy,
		concurrency: concurrency,
	}
}

type Request struct {
	Template         storage.ProductTemplate
	Quantity         int
	Overrides        Overrides
	MarginPercentage *float64
}

type Overrides struct {
	MaterialID *int64   `json:"materialId,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	SpeedTier  string   `json:"speedTier,omitempty"`
}

type Result struct {
	ID           string       `json:"id"`
	Error        bool         `json:"error,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	Lines        []Line       `json:"lines,omitempty"`
	GrandTotals  *GrandTotals `json:"grandTotals,omitempty"`
	DebugReport  []DebugEntry `json:"debugReport"`
}

type GrandTotals struct {
	Total     float64 `json:"total"`
	SubTotal  float64 `json:"subTotal"`
	VAT       float64 `json:"vat"`
	CostPrice float64 `json:"costPrice"`
}

type Line struct {
	TemplateID         int64               `json:"templateId"`
	Quantity           int                 `json:"quantity"`
	Items              []Item              `json:"items"`
	Skipped            []SkippedStep       `json:"skipped,omitempty"`
	Prices             Prices              `json:"prices"`
	TimeTotals         TimeTotals          `json:"timeTotals"`
	Impositions        []imposition.Result `json:"impositions"`
	Resolved           Resolved            `json:"resolved"`
	CalculationDetails CalculationDetails  `json:"calculationDetails"`
}

type Item struct {
	Type        string  `json:"type"`
	NodeID      string  `json:"nodeId,omitempty"`
	Description string  `json:"description"`
	Spec        string  `json:"spec"`
	Hours       float64 `json:"hours,omitempty"`
	Total       float64 `json:"total"`
}

type TimeTotals struct {
	RunHours   float64 `json:"runHours"`
	SetupHours float64 `json:"setupHours"`
	TotalHours float64 `json:"totalHours"`
}

type Resolved struct {
	Material   *storage.Material `json:"material"`
	SpeedTier  string            `json:"speedTier"`
	Steps      []ResolvedStep    `json:"steps"`
	Complete   bool              `json:"complete"`
	HaltReason HaltReason        `json:"haltReason,omitempty"`
}

type ResolvedStep struct {
	NodeID   string            `json:"nodeId"`
	Label    string            `json:"label"`
	Type     string            `json:"type"`
	Resource *storage.Resource `json:"resource,omitempty"`
	Priced   *PricedStep       `json:"priced,omitempty"`
}

// CalculationDetails carries what the planner reads back from a stored quote.
type CalculationDetails struct {
	Durations map[string]float64 `json:"durations"`
}

// Calculate prices one template for a quantity. The returned result is never nil and
// always carries the debug report; on a fatal condition the error is returned as well
// and the result is flagged with Error and ErrorMessage.
func (e *Engine) Calculate(ctx context.Context, req Request) (*Result, error) {
	const op = "service.calculation.Calculate"

	res := &Result{ID: uuid.NewString()}
	rep := &report{}

	line, err := e.run(ctx, req, rep)
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)

		data := map[string]any{"error": err.Error()}
		var ce *crashError
		if errors.As(err, &ce) && ce.stack != "" {
			data["stack"] = ce.stack
		}
		rep.add(StageFatal, StatusCrash, err.Error(), data)

		res.Error = true
		res.ErrorMessage = err.Error()
		res.DebugReport = rep.entries

		e.log.Error("calculation failed",
			slog.String("op", op),
			slog.String("id", res.ID),
			slog.Int64("template_id", req.Template.ID),
			slog.String("error", err.Error()),
		)
		return res, err
	}

	res.Lines = []Line{*line}
	res.GrandTotals = &GrandTotals{
		Total:     line.Prices.Total,
		SubTotal:  line.Prices.SubTotal,
		VAT:       line.Prices.VAT,
		CostPrice: line.Prices.CostPrice,
	}
	res.DebugReport = rep.entries

	e.log.Info("calculation finished",
		slog.String("id", res.ID),
		slog.Int64("template_id", req.Template.ID),
		slog.Int("quantity", req.Quantity),
		slog.Int("skipped", len(line.Skipped)),
		slog.Float64("total", res.GrandTotals.Total),
	)

	return res, nil
}

type crashError struct {
	cause error
	stack string
}

func (c *crashError) Error() string { return c.cause.Error() }
func (c *crashError) Unwrap() []error {
	return []error{ErrCrash, c.cause}
}

func panicked(r any) error {
	return &crashError{cause: fmt.Errorf("panic: %v", r), stack: string(debug.Stack())}
}

// guard keeps a panic inside an errgroup goroutine from taking the process down.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicked(r)
			}
		}()
		return fn()
	}
}

func (e *Engine) run(ctx context.Context, req Request, rep *report) (line *Line, err error) {
	defer func() {
		if r := recover(); r != nil {
			line = nil
			err = panicked(r)
		}
	}()

	tier := e.policy.SpeedTier
	if req.Overrides.SpeedTier != "" {
		tier = req.Overrides.SpeedTier
	}

	rep.add(StageInit, StatusOK, "calculation started", map[string]any{
		"templateId":       req.Template.ID,
		"quantity":         req.Quantity,
		"speedTier":        tier,
		"marginPercentage": req.MarginPercentage,
	})

	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidRequest, req.Quantity)
	}

	path, err := Linearize(req.Template.WorkflowDefinition)
	if err != nil {
		return nil, err
	}
	rep.addAll(path.Trace)
	if !path.Complete {
		rep.add(StageWorkflow, StatusWarning, "workflow does not reach "+storage.NodeEnd+", result is partial",
			map[string]any{"reason": string(path.HaltReason), "nodeId": path.HaltNodeID})
	}

	material, imp, resources, err := e.fetch(ctx, req, path.Steps)
	if err != nil {
		return nil, err
	}

	line = &Line{
		TemplateID:  req.Template.ID,
		Quantity:    req.Quantity,
		Items:       []Item{},
		Impositions: []imposition.Result{imp},
		Resolved: Resolved{
			Material:   material,
			SpeedTier:  tier,
			Steps:      make([]ResolvedStep, 0, len(path.Steps)),
			Complete:   path.Complete,
			HaltReason: path.HaltReason,
		},
		CalculationDetails: CalculationDetails{Durations: make(map[string]float64, len(path.Steps))},
	}

	materialCost := float64(imp.Sheets) * material.Price
	rep.add(StageMaterial, StatusOK, fmt.Sprintf("material %q resolved", material.Name),
		map[string]any{"materialId": material.ID, "price": material.Price})
	rep.add(StageImposition, StatusOK, fmt.Sprintf("%d sheets needed", imp.Sheets), imp)

	line.Items = append(line.Items, Item{
		Type:        "MATERIAL",
		Description: material.Name,
		Spec:        fmt.Sprintf("%d vel à €%.2f", imp.Sheets, material.Price),
		Total:       materialCost,
	})
	costs := []float64{materialCost}

	var run, setup []float64
	for i, node := range path.Steps {
		outcome := PriceStep(node, resources[i], req.Quantity, tier)

		step := ResolvedStep{NodeID: node.ID, Label: node.Data.Label, Type: node.Data.Type, Resource: resources[i]}

		switch outcome.Kind {
		case OutcomePriced:
			p := outcome.Priced
			step.Priced = p

			line.Items = append(line.Items, Item{
				Type:        itemType(node),
				NodeID:      node.ID,
				Description: node.Data.Label,
				Spec:        fmt.Sprintf("%.2f uur à €%.2f/u", p.TimeHours, p.Rate),
				Hours:       p.TimeHours,
				Total:       p.Cost,
			})
			line.CalculationDetails.Durations[node.ID] = p.TimeHours
			costs = append(costs, p.Cost)
			run = append(run, p.RunHours)
			setup = append(setup, p.SetupHours)

			status := StatusOK
			if p.SpeedDefaulted {
				status = StatusWarning
			}
			rep.add(StageStep, status, fmt.Sprintf("%s priced", node.Data.Label), p)

		case OutcomeSkipped:
			line.Skipped = append(line.Skipped, *outcome.Skip)
			rep.add(StageStep, outcome.Skip.Severity, outcome.Skip.Reason, outcome.Skip)
			e.log.Debug("step skipped",
				slog.String("node_id", node.ID),
				slog.String("reason", outcome.Skip.Reason),
			)
		}

		line.Resolved.Steps = append(line.Resolved.Steps, step)
	}

	line.TimeTotals = TimeTotals{RunHours: sum(run...), SetupHours: sum(setup...)}
	line.TimeTotals.TotalHours = sum(line.TimeTotals.RunHours, line.TimeTotals.SetupHours)

	line.Prices = e.policy.Apply(sum(costs...), req.MarginPercentage)
	rep.add(StagePricing, StatusOK, "price calculated", line.Prices)

	return line, nil
}

// fetch loads the material, its imposition and the resources of every step concurrently.
// A resource that does not exist yields nil at its index; any other storage failure
// aborts the calculation.
func (e *Engine) fetch(ctx context.Context, req Request, steps []storage.Node) (*storage.Material, imposition.Result, []*storage.Resource, error) {
	var (
		material  *storage.Material
		imp       imposition.Result
		resources = make([]*storage.Resource, len(steps))
	)

	materialID := req.Template.DefaultMaterialID
	if req.Overrides.MaterialID != nil {
		materialID = req.Overrides.MaterialID
	}
	if materialID == nil {
		return nil, imp, nil, fmt.Errorf("%w: no material selected for template %d", ErrMaterialNotFound, req.Template.ID)
	}

	width, height := req.Template.Width, req.Template.Height
	if req.Overrides.Width != nil {
		width = *req.Overrides.Width
	}
	if req.Overrides.Height != nil {
		height = *req.Overrides.Height
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	g.Go(guard(func() error {
		m, err := e.storage.FindMaterialByID(gCtx, *materialID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: id %d", ErrMaterialNotFound, *materialID)
			}
			return &crashError{cause: fmt.Errorf("material: %w", err)}
		}

		r, err := e.impositions.Compute(gCtx, imposition.Request{
			Material: *m,
			Width:    width,
			Height:   height,
			Quantity: req.Quantity,
		})
		if err != nil {
			if errors.Is(err, imposition.ErrInvalidInput) || errors.Is(err, imposition.ErrNoFit) {
				return fmt.Errorf("%w: material %d: %w", ErrInvalidLayout, m.ID, err)
			}
			return &crashError{cause: fmt.Errorf("imposition: %w", err)}
		}

		material, imp = m, r
		return nil
	}))

	for i, node := range steps {
		resType, ok := node.ResourceType()
		if !ok || node.Data.ResourceID == nil {
			continue
		}
		id := *node.Data.ResourceID

		g.Go(guard(func() error {
			r, err := e.storage.FindResourceByID(gCtx, resType, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil
				}
				return &crashError{cause: fmt.Errorf("%s resource %d: %w", resType, id, err)}
			}
			resources[i] = r
			return nil
		}))
	}

	if err := g.Wait(); err != nil {
		return nil, imp, nil, err
	}

	return material, imp, resources, nil
}

func itemType(node storage.Node) string {
	switch node.Data.Type {
	case storage.NodeMachine:
		return "MACHINE"
	case storage.NodeFinishing:
		return "FINISHING"
	case storage.NodeLabor:
		return "LABOR"
	default:
		return node.Data.Type
	}
}
