package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"print-calc/http-server/calculation/calculate"
	"print-calc/http-server/request"
	"print-calc/internal/service/calculation"
	"print-calc/internal/storage"
	"time"

	"github.com/go-chi/render"
)

type QuoteStorage interface {
	GetTemplateByID(ctx context.Context, id int64) (*storage.ProductTemplate, error)
	SaveQuote(ctx context.Context, quote storage.Quote) (int64, error)
}

type Calculator interface {
	Calculate(ctx context.Context, req calculation.Request) (*calculation.Result, error)
}

type Request struct {
	OrderID int64 `json:"orderId" validate:"required,gt=0"`
	request.Calculation
}

type Response struct {
	ID     int64               `json:"id"`
	Status storage.QuoteStatus `json:"status"`
	Result *calculation.Result `json:"result"`
}

// SaveQuote calculates the order line and stores the result verbatim as a draft quote.
// Fatal calculations are returned with 422 and nothing is stored.
func SaveQuote(log *slog.Logger, quotes QuoteStorage, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quote.SaveQuote"

		log := log.With(slog.String("op", op))

		var req Request
		if err := request.Decode(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tpl, err := quotes.GetTemplateByID(ctx, req.TemplateID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}
			log.Error("failed to fetch template", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res, err := calc.Calculate(ctx, req.Build(*tpl))
		if err != nil {
			render.Status(r, calculate.FatalStatus(err))
			render.JSON(w, r, res)
			return
		}

		raw, err := json.Marshal(res)
		if err != nil {
			log.Error("failed to encode calculation result", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, err := quotes.SaveQuote(ctx, storage.Quote{
			OrderID:           req.OrderID,
			TemplateID:        req.TemplateID,
			Quantity:          req.Quantity,
			Status:            storage.QuoteDraft,
			CalculationResult: raw,
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Order not found", http.StatusNotFound)
				return
			}
			log.Error("failed to save quote", slog.String("error", err.Error()))
			http.Error(w, "ошибка сохранения расчёта", http.StatusInternalServerError)
			return
		}

		log.Info("quote saved", slog.Int64("quote_id", id), slog.Int64("order_id", req.OrderID), slog.String("calculation_id", res.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{ID: id, Status: storage.QuoteDraft, Result: res})
	}
}
