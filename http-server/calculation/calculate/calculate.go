package calculate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"print-calc/http-server/request"
	"print-calc/internal/service/calculation"
	"print-calc/internal/storage"
	"time"

	"github.com/go-chi/render"
)

type TemplateProvider interface {
	GetTemplateByID(ctx context.Context, id int64) (*storage.ProductTemplate, error)
}

type Calculator interface {
	Calculate(ctx context.Context, req calculation.Request) (*calculation.Result, error)
}

// Calculate prices a template. A fatal calculation is answered with 422 (500 for a
// crash) and the result body, so the client can always show the debug report.
func Calculate(log *slog.Logger, templates TemplateProvider, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.Calculate"

		log := log.With(slog.String("op", op))

		var req request.Calculation
		if err := request.Decode(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tpl, ok := loadTemplate(ctx, log, w, templates, req.TemplateID)
		if !ok {
			return
		}

		// ошибка дублируется в результате вместе с отчётом
		res, err := calc.Calculate(ctx, req.Build(*tpl))
		if err != nil {
			log.Warn("calculation is fatal", slog.Int64("template_id", req.TemplateID), slog.String("error", err.Error()))
			render.Status(r, FatalStatus(err))
		}
		render.JSON(w, r, res)
	}
}

// loadTemplate writes the error response itself and reports false when the template
// cannot be used.
func loadTemplate(ctx context.Context, log *slog.Logger, w http.ResponseWriter, templates TemplateProvider, id int64) (*storage.ProductTemplate, bool) {
	tpl, err := templates.GetTemplateByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("template not found", slog.Int64("template_id", id))
			http.Error(w, "Template not found", http.StatusNotFound)
			return nil, false
		}

		log.Error("failed to fetch template", slog.Int64("template_id", id), slog.String("error", err.Error()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return tpl, true
}

// FatalStatus maps a fatal calculation error to the response code sent with the result.
func FatalStatus(err error) int {
	if errors.Is(err, calculation.ErrCrash) {
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}
