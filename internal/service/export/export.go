package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"print-calc/internal/service/calculation"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetQuote = "Offerte"
	SheetDebug = "Debug"
)

var ErrNoResult = errors.New("no calculation result")

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Workbook renders a calculation result as xlsx. A failed calculation still yields a
// workbook: the quote sheet then only carries the error message.
func (s *Service) Workbook(res *calculation.Result, title string) ([]byte, error) {
	const op = "service.export.Workbook"

	if res == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoResult)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetQuote); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(SheetDebug); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: стили: %w", op, err)
	}

	w := &sheetWriter{f: f, sheet: SheetQuote}
	w.row(st.title, title)
	w.row(0, "Calculatie", res.ID)

	if res.Error {
		w.skip()
		w.row(st.errorText, "Fout", res.ErrorMessage)
	}

	for _, line := range res.Lines {
		writeLine(w, st, line)
	}

	d := &sheetWriter{f: f, sheet: SheetDebug}
	d.row(st.header, "Stap", "Status", "Melding", "Data")
	for _, e := range res.DebugReport {
		data := ""
		if e.Data != nil {
			b, err := json.Marshal(e.Data)
			if err != nil {
				return nil, fmt.Errorf("%s: debug data: %w", op, err)
			}
			data = string(b)
		}
		d.row(0, e.Stage, string(e.Status), e.Message, data)
	}

	if err := errors.Join(append(w.errs, d.errs...)...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_ = f.SetColWidth(SheetQuote, "A", "A", 14)
	_ = f.SetColWidth(SheetQuote, "B", "C", 32)
	_ = f.SetColWidth(SheetQuote, "D", "E", 12)
	_ = f.SetColWidth(SheetDebug, "A", "B", 14)
	_ = f.SetColWidth(SheetDebug, "C", "C", 60)
	_ = f.SetPanes(SheetDebug, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func writeLine(w *sheetWriter, st styles, line calculation.Line) {
	w.row(0, "Aantal", line.Quantity)
	if m := line.Resolved.Material; m != nil {
		w.row(0, "Materiaal", m.Name)
	}
	if !line.Resolved.Complete {
		w.row(st.errorText, "Workflow", "onvolledig: "+string(line.Resolved.HaltReason))
	}

	w.skip()
	w.row(st.header, "Type", "Omschrijving", "Specificatie", "Uren", "Totaal")
	for _, it := range line.Items {
		w.moneyRow(st.money, 5, it.Type, it.Description, it.Spec, it.Hours, it.Total)
	}

	w.skip()
	p := line.Prices
	w.moneyRow(st.money, 2, "Directe kosten", p.DirectCost)
	w.moneyRow(st.money, 2, fmt.Sprintf("Overhead (%s)", percent(p.OverheadRate)), p.Overhead)
	w.moneyRow(st.money, 2, "Kostprijs", p.CostPrice)
	w.moneyRow(st.money, 2, fmt.Sprintf("Marge (%s)", percent(p.MarginPercentage)), p.MarginAmount)
	w.moneyRow(st.money, 2, "Subtotaal", p.SubTotal)
	w.moneyRow(st.money, 2, fmt.Sprintf("BTW (%s)", percent(p.VATRate)), p.VAT)
	w.moneyRow(st.total, 2, "Totaal", p.Total)

	w.skip()
	w.row(0, "Uren", line.TimeTotals.TotalHours)

	if len(line.Skipped) > 0 {
		w.skip()
		w.row(st.header, "Overgeslagen", "Stap", "Reden")
		for _, sk := range line.Skipped {
			w.row(0, string(sk.Severity), sk.Label, sk.Reason)
		}
	}
	w.skip()
}

func percent(rate float64) string {
	return decimal.NewFromFloat(rate).Shift(2).String() + "%"
}
