package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"print-calc/http-server/request"
	"print-calc/internal/schemas"
	"print-calc/internal/service/calculation"
	"print-calc/internal/storage"
	"time"

	"github.com/go-chi/render"
)

type TemplateSaver interface {
	SaveTemplate(ctx context.Context, t storage.ProductTemplate) (int64, error)
}

type Request struct {
	ID                 int64           `json:"id" validate:"gte=0"`
	Name               string          `json:"name" validate:"required,max=255"`
	Category           string          `json:"category" validate:"max=100"`
	DefaultMaterialID  *int64          `json:"defaultMaterialId" validate:"omitempty,gt=0"`
	Width              float64         `json:"width" validate:"gt=0"`
	Height             float64         `json:"height" validate:"gt=0"`
	IsActive           bool            `json:"isActive"`
	WorkflowDefinition json.RawMessage `json:"workflowDefinition" validate:"required"`
}

type Response struct {
	ID    int64 `json:"id"`
	Steps int   `json:"steps"`
}

// SaveTemplateAdmin stores a product template after checking that its workflow matches the
// schema and can be walked from Start to Einde.
func SaveTemplateAdmin(log *slog.Logger, templates TemplateSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.template.SaveTemplateAdmin"

		log := log.With(slog.String("op", op))

		var req Request
		if err := request.Decode(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := schemas.ValidateWorkflow(req.WorkflowDefinition); err != nil {
			var ve *schemas.ValidationError
			if errors.As(err, &ve) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, ve)
				return
			}
			// сам документ не разобрать
			http.Error(w, "некорректный workflowDefinition: "+err.Error(), http.StatusBadRequest)
			return
		}

		var graph storage.WorkflowGraph
		if err := json.Unmarshal(req.WorkflowDefinition, &graph); err != nil {
			http.Error(w, "некорректный workflowDefinition: "+err.Error(), http.StatusBadRequest)
			return
		}

		path, err := calculation.Linearize(&graph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !path.Complete {
			http.Error(w, fmt.Sprintf("workflow does not reach %s: %s at node %q",
				storage.NodeEnd, path.HaltReason, path.HaltNodeID), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, err := templates.SaveTemplate(ctx, storage.ProductTemplate{
			ID:                 req.ID,
			Name:               req.Name,
			Category:           req.Category,
			DefaultMaterialID:  req.DefaultMaterialID,
			Width:              req.Width,
			Height:             req.Height,
			WorkflowDefinition: &graph,
			IsActive:           req.IsActive,
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "шаблон или материал не найден", http.StatusNotFound)
				return
			}
			log.Error("failed to save template", slog.String("error", err.Error()))
			http.Error(w, "ошибка сохранения шаблона", http.StatusInternalServerError)
			return
		}

		log.Info("template saved", slog.Int64("template_id", id), slog.Int("steps", len(path.Steps)))

		status := http.StatusOK
		if req.ID == 0 {
			status = http.StatusCreated
		}
		render.Status(r, status)
		render.JSON(w, r, Response{ID: id, Steps: len(path.Steps)})
	}
}
