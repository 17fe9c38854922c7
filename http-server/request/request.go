package request

import (
	"errors"
	"fmt"
	"net/http"
	"print-calc/internal/service/calculation"
	"print-calc/internal/storage"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a JSON body into dst and runs the struct validation tags.
func Decode(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return fmt.Errorf("некорректный JSON: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return errors.New(Describe(err))
	}
	return nil
}

// Describe turns validator errors into one readable line.
func Describe(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "validation error: invalid request"
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s - %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s - %s", fe.Field(), fe.Tag()))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// IDParam reads a positive int64 chi URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

type Overrides struct {
	MaterialID *int64   `json:"materialId" validate:"omitempty,gt=0"`
	Width      *float64 `json:"width" validate:"omitempty,gt=0"`
	Height     *float64 `json:"height" validate:"omitempty,gt=0"`
	SpeedTier  string   `json:"speedTier" validate:"omitempty,max=64"`
}

// Calculation is the body shared by the calculate, export and quote endpoints.
type Calculation struct {
	TemplateID       int64     `json:"templateId" validate:"required,gt=0"`
	Quantity         int       `json:"quantity" validate:"gte=0"`
	Overrides        Overrides `json:"overrides"`
	MarginPercentage *float64  `json:"marginPercentage" validate:"omitempty,gte=0,lt=1000"`
}

func (c Calculation) Build(template storage.ProductTemplate) calculation.Request {
	return calculation.Request{
		Template: template,
		Quantity: c.Quantity,
		Overrides: calculation.Overrides{
			MaterialID: c.Overrides.MaterialID,
			Width:      c.Overrides.Width,
			Height:     c.Overrides.Height,
			SpeedTier:  c.Overrides.SpeedTier,
		},
		MarginPercentage: c.MarginPercentage,
	}
}
