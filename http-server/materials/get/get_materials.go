package get

import (
	"context"
	"log/slog"
	"net/http"
	"print-calc/internal/storage"
	"time"

	"github.com/go-chi/render"
)

type MaterialProvider interface {
	GetAllMaterials(ctx context.Context) ([]*storage.Material, error)
}

type Response struct {
	Materials []*storage.Material `json:"materials"`
}

// GetMaterials lists the sheet materials a calculation can be overridden with.
func GetMaterials(log *slog.Logger, material MaterialProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.materials.GetMaterials"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		materials, err := material.GetAllMaterials(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении материалов")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if materials == nil {
			materials = []*storage.Material{}
		}

		render.JSON(w, r, Response{Materials: materials})
	}
}
