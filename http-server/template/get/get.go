package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"print-calc/http-server/request"
	"print-calc/internal/storage"
	"time"

	"github.com/go-chi/render"
)

type TemplateGetter interface {
	GetTemplateByID(ctx context.Context, id int64) (*storage.ProductTemplate, error)
	GetAllTemplates(ctx context.Context) ([]*storage.ProductTemplate, error)
}

func GetTemplate(log *slog.Logger, templates TemplateGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.GetTemplate"

		id, err := request.IDParam(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		template, err := templates.GetTemplateByID(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.With(slog.String("op", op), slog.Int64("template_id", id)).Warn("Template not found")
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}

			log.With(
				slog.String("op", op),
				slog.Int64("template_id", id),
				slog.String("error", err.Error()),
			).Error("Failed to fetch template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, template)
	}
}

type ResponseAll struct {
	Templates []*storage.ProductTemplate `json:"templates"`
}

// GetAllTemplates lists active templates without their workflow documents.
func GetAllTemplates(log *slog.Logger, templates TemplateGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.GetAllTemplates"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		all, err := templates.GetAllTemplates(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to fetch templates")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if all == nil {
			all = []*storage.ProductTemplate{}
		}

		render.JSON(w, r, ResponseAll{Templates: all})
	}
}
