package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"print-calc/http-server/request"
	"print-calc/internal/service/planner"
	"print-calc/internal/storage"
	"time"

	"github.com/go-chi/render"
)

type OrderStorage interface {
	GetOrderByID(ctx context.Context, id int64) (*storage.Order, error)
	GetQuoteForOrder(ctx context.Context, orderID int64) (*storage.Quote, error)
	InTx(ctx context.Context, fn func(tx storage.Tx) error) error
}

type WorkflowPlanner interface {
	PlanOrderWorkflow(ctx context.Context, tx planner.Tx, order storage.Order, quote storage.Quote) error
}

type Response struct {
	OrderID int64               `json:"orderId"`
	QuoteID int64               `json:"quoteId"`
	Status  storage.OrderStatus `json:"status"`
}

// PlanOrder accepts the order's quote if it is still a draft and turns it into production
// steps, all in one transaction. ON_HOLD is a normal outcome and is answered with 200.
// Concurrent requests for one order are serialized by the order row lock; the loser gets 409.
func PlanOrder(log *slog.Logger, orders OrderStorage, plan WorkflowPlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.order.PlanOrder"

		log := log.With(slog.String("op", op))

		orderID, err := request.IDParam(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log = log.With(slog.Int64("order_id", orderID))

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to fetch order", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if order.Status == storage.OrderPlanned {
			http.Error(w, "Order is already planned", http.StatusConflict)
			return
		}

		quote, err := orders.GetQuoteForOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Order has no quote", http.StatusConflict)
				return
			}
			log.Error("failed to fetch quote", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		err = orders.InTx(ctx, func(tx storage.Tx) error {
			// статус перечитываем под блокировкой, параллельный запрос мог успеть раньше
			locked, err := tx.LockOrderForPlanning(ctx, orderID)
			if err != nil {
				return err
			}
			if quote.Status != storage.QuoteAccepted {
				if err := tx.AcceptQuote(ctx, quote.ID); err != nil {
					return fmt.Errorf("accept quote: %w", err)
				}
			}
			return plan.PlanOrderWorkflow(ctx, tx, *locked, *quote)
		})
		if errors.Is(err, storage.ErrConflict) {
			log.Info("order was planned concurrently", slog.Int64("quote_id", quote.ID))
			http.Error(w, "Order is already planned", http.StatusConflict)
			return
		}
		if err != nil {
			log.Error("planning rolled back", slog.Int64("quote_id", quote.ID), slog.String("error", err.Error()))
			http.Error(w, "ошибка планирования заказа", http.StatusInternalServerError)
			return
		}

		updated, err := orders.GetOrderByID(ctx, orderID)
		if err != nil {
			log.Error("failed to reload order", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{OrderID: orderID, QuoteID: quote.ID, Status: updated.Status})
	}
}
