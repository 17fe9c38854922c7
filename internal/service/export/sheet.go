package export

import "github.com/xuri/excelize/v2"

type styles struct {
	title     int
	header    int
	money     int
	total     int
	errorText int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return st, err
	}
	// Жирная шапка с серой заливкой
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	}); err != nil {
		return st, err
	}
	if st.money, err = f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return st, err
	}
	if st.total, err = f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	if st.errorText, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "C00000"}}); err != nil {
		return st, err
	}

	return st, nil
}

// sheetWriter appends rows top to bottom and collects errors for the caller to check once.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	errs  []error
}

func (w *sheetWriter) skip() {
	w.next++
}

func (w *sheetWriter) row(style int, values ...any) {
	w.next++
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.errs = append(w.errs, err)
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.errs = append(w.errs, err)
		return
	}
	if style == 0 {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(values), w.next)
	if err := w.f.SetCellStyle(w.sheet, cell, last, style); err != nil {
		w.errs = append(w.errs, err)
	}
}

// moneyRow writes values and applies style to the numeric columns starting at moneyFrom.
func (w *sheetWriter) moneyRow(style, moneyFrom int, values ...any) {
	w.row(0, values...)
	if moneyFrom > len(values) {
		return
	}
	from, _ := excelize.CoordinatesToCellName(moneyFrom, w.next)
	to, _ := excelize.CoordinatesToCellName(len(values), w.next)
	if err := w.f.SetCellStyle(w.sheet, from, to, style); err != nil {
		w.errs = append(w.errs, err)
	}
}
