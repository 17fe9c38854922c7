package steps

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

type StepsGetter interface {
	GetOrderByID(ctx context.Context, id int64) (*storage.Order, error)
	GetProductionSteps(ctx context.Context, orderID int64) ([]storage.ProductionStep, error)
}

type Response struct {
	OrderID int64                    `json:"orderId"`
	Status  storage.OrderStatus      `json:"status"`
	Steps   []storage.ProductionStep `json:"steps"`
}

func GetSteps(log *slog.Logger, getter StepsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.order.GetSteps"

		log := log.With(slog.String("op", op))

		orderID, err := request.IDParam(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := getter.GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to fetch order", slog.Int64("order_id", orderID), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		steps, err := getter.GetProductionSteps(ctx, orderID)
		if err != nil {
			log.Error("failed to fetch production steps", slog.Int64("order_id", orderID), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if steps == nil {
			steps = []storage.ProductionStep{}
		}

		render.JSON(w, r, Response{OrderID: order.ID, Status: order.Status, Steps: steps})
	}
}
