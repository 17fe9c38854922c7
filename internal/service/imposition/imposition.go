// Package imposition lays out product items on material sheets and reports how many
// sheets a quantity needs.
package imposition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"print-calc/internal/storage"
)

var (
	ErrInvalidInput = errors.New("invalid imposition input")
	ErrNoFit        = errors.New("item does not fit on material sheet")
)

type Request struct {
	Material storage.Material
	Width    float64 // мм, формат изделия
	Height   float64
	Quantity int
}

type Result struct {
	MaterialID int64 `json:"material"`
	Sheets     int   `json:"sheets"`
	PerSheet   int   `json:"perSheet"`
	Waste      int   `json:"waste"`
	Across     int   `json:"across"`
	Down       int   `json:"down"`
	Rotated    bool  `json:"rotated"`
}

// Grid places items in a plain rows/columns grid, trying both orientations.
type Grid struct {
	bleed  float64
	gutter float64
}

func NewGrid(bleed, gutter float64) *Grid {
	return &Grid{bleed: bleed, gutter: gutter}
}

func (g *Grid) Compute(ctx context.Context, req Request) (Result, error) {
	const op = "service.imposition.Compute"

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	if req.Quantity < 0 || req.Width <= 0 || req.Height <= 0 ||
		req.Material.Width <= 0 || req.Material.Height <= 0 {
		return Result{}, fmt.Errorf("%s: %w: item %.1fx%.1f, sheet %.1fx%.1f, quantity %d",
			op, ErrInvalidInput, req.Width, req.Height, req.Material.Width, req.Material.Height, req.Quantity)
	}

	across, down := g.fit(req.Material.Width, req.Material.Height, req.Width, req.Height)
	rAcross, rDown := g.fit(req.Material.Width, req.Material.Height, req.Height, req.Width)

	res := Result{MaterialID: req.Material.ID, Across: across, Down: down}
	if rAcross*rDown > across*down {
		res.Across, res.Down, res.Rotated = rAcross, rDown, true
	}
	res.PerSheet = res.Across * res.Down

	if res.PerSheet == 0 {
		return Result{}, fmt.Errorf("%s: %w: material %d", op, ErrNoFit, req.Material.ID)
	}

	res.Sheets = int(math.Ceil(float64(req.Quantity) / float64(res.PerSheet)))
	res.Waste = res.Sheets*res.PerSheet - req.Quantity

	return res, nil
}

// fit returns how many items of w x h go across and down a sheetW x sheetH sheet.
// The gutter only sits between items, so it is added once to the sheet size.
func (g *Grid) fit(sheetW, sheetH, w, h float64) (int, int) {
	cellW := w + 2*g.bleed + g.gutter
	cellH := h + 2*g.bleed + g.gutter

	across := int(math.Floor((sheetW + g.gutter) / cellW))
	down := int(math.Floor((sheetH + g.gutter) / cellH))

	return across, down
}
