package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"print-calc/internal/storage"
	"time"
)

func (s *Storage) GetOrderByID(ctx context.Context, id int64) (*storage.Order, error) {
	const op = "storage.mysql.GetOrderByID"

	query := `SELECT id, company_id, order_num, due_date, status FROM print_orders WHERE id = ?`

	order := &storage.Order{}
	var due sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.CompanyID, &order.OrderNum, &due, &order.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: заказ id=%d: %w", op, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if due.Valid {
		order.DueDate = &due.Time
	}

	return order, nil
}

// GetQuoteForOrder returns the accepted quote of the order, or its newest draft when none
// was accepted yet. The template with its workflow is loaded alongside.
func (s *Storage) GetQuoteForOrder(ctx context.Context, orderID int64) (*storage.Quote, error) {
	const op = "storage.mysql.GetQuoteForOrder"

	query := `
		SELECT id, order_id, template_id, quantity, status, calculation_result, created_at
		FROM print_quotes
		WHERE order_id = ?
		ORDER BY status = 'ACCEPTED' DESC, created_at DESC, id DESC
		LIMIT 1
	`

	quote := &storage.Quote{}
	var result []byte
	err := s.db.QueryRowContext(ctx, query, orderID).Scan(
		&quote.ID,
		&quote.OrderID,
		&quote.TemplateID,
		&quote.Quantity,
		&quote.Status,
		&result,
		&quote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: у заказа id=%d нет расчёта: %w", op, orderID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	quote.CalculationResult = result

	quote.Template, err = s.GetTemplateByID(ctx, quote.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return quote, nil
}

// SaveQuote stores a new draft quote. The calculation result is kept byte for byte.
func (s *Storage) SaveQuote(ctx context.Context, quote storage.Quote) (int64, error) {
	const op = "storage.mysql.SaveQuote"

	if quote.Status == "" {
		quote.Status = storage.QuoteDraft
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}

	stmt := `INSERT INTO print_quotes (order_id, template_id, quantity, status, calculation_result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, quote.OrderID, quote.TemplateID, quote.Quantity, quote.Status,
		string(quote.CalculationResult), quote.CreatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return 0, fmt.Errorf("%s: заказ или шаблон не существует: %w", op, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения расчёта: %w", op, err)
	}

	return res.LastInsertId()
}

func (s *Storage) GetProductionSteps(ctx context.Context, orderID int64) ([]storage.ProductionStep, error) {
	const op = "storage.mysql.GetProductionSteps"

	query := `
		SELECT id, order_id, title, notes, sort_order, resource_id, resource_type, planned_duration_hours,
		       planned_start_date, assigned_resource_id, assigned_user_id, status
		FROM print_production_steps
		WHERE order_id = ?
		ORDER BY sort_order
	`

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var steps []storage.ProductionStep
	for rows.Next() {
		var (
			step                              storage.ProductionStep
			notes                             sql.NullString
			resourceID, assignedRes, assigned sql.NullInt64
			start                             sql.NullTime
		)

		err := rows.Scan(&step.ID, &step.OrderID, &step.Title, &notes, &step.Order, &resourceID, &step.ResourceType,
			&step.PlannedDurationHours, &start, &assignedRes, &assigned, &step.Status)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		step.Notes = notes.String
		step.ResourceID = int64Ptr(resourceID)
		step.AssignedResourceID = int64Ptr(assignedRes)
		step.AssignedUserID = int64Ptr(assigned)
		if start.Valid {
			step.PlannedStartDate = &start.Time
		}

		steps = append(steps, step)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return steps, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
