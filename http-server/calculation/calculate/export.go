package calculate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"print-calc/http-server/request"
	"print-calc/internal/service/calculation"
	"time"
)

type Exporter interface {
	Workbook(res *calculation.Result, title string) ([]byte, error)
}

// Export runs the same calculation as Calculate and answers with an xlsx workbook.
func Export(log *slog.Logger, templates TemplateProvider, calc Calculator, exp Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.Export"

		log := log.With(slog.String("op", op))

		var req request.Calculation
		if err := request.Decode(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// На Excel даём больше времени
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		tpl, ok := loadTemplate(ctx, log, w, templates, req.TemplateID)
		if !ok {
			return
		}

		// неудачный расчёт тоже выгружаем, с ошибкой и отчётом
		res, _ := calc.Calculate(ctx, req.Build(*tpl))

		title := fmt.Sprintf("%s, %d stuks", tpl.Name, req.Quantity)
		excelBytes, err := exp.Workbook(res, title)
		if err != nil {
			log.Error("failed to generate excel", slog.String("error", err.Error()))
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("Calculatie_%d_%s.xlsx", req.TemplateID, time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Error("failed to write workbook", slog.String("error", err.Error()))
		}
	}
}
