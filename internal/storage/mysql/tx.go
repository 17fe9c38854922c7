package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"print-calc/internal/storage"
)

// Tx runs the planner writes inside one database transaction.
type Tx struct {
	tx *sql.Tx
}

// InTx opens a transaction, hands it to fn and commits when fn returns nil.
func (s *Storage) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	const op = "storage.mysql.InTx"

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: старт транзакции: %w", op, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%s: ошибка завершения транзакции: %w", op, err)
	}

	return nil
}

func (t *Tx) LockOrderForPlanning(ctx context.Context, orderID int64) (*storage.Order, error) {
	const op = "storage.mysql.LockOrderForPlanning"

	query := `SELECT id, company_id, order_num, due_date, status FROM print_orders WHERE id = ? FOR UPDATE`

	o := &storage.Order{}
	var due sql.NullTime
	err := t.tx.QueryRowContext(ctx, query, orderID).Scan(&o.ID, &o.CompanyID, &o.OrderNum, &due, &o.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: заказ id=%d: %w", op, orderID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if due.Valid {
		o.DueDate = &due.Time
	}

	if o.Status == storage.OrderPlanned {
		return nil, fmt.Errorf("%s: заказ id=%d уже запланирован: %w", op, orderID, storage.ErrConflict)
	}

	return o, nil
}

func (t *Tx) FindCompanyOwner(ctx context.Context, companyID int64, role string) (*storage.User, error) {
	const op = "storage.mysql.FindCompanyOwner"

	query := `SELECT id, company_id, name, role FROM print_users WHERE company_id = ? AND role = ? ORDER BY id LIMIT 1`

	u := &storage.User{}
	err := t.tx.QueryRowContext(ctx, query, companyID, role).Scan(&u.ID, &u.CompanyID, &u.Name, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: компания id=%d без роли %s: %w", op, companyID, role, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (t *Tx) AcceptQuote(ctx context.Context, quoteID int64) error {
	const op = "storage.mysql.AcceptQuote"

	res, err := t.tx.ExecContext(ctx, `UPDATE print_quotes SET status = ? WHERE id = ?`, storage.QuoteAccepted, quoteID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := t.tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM print_quotes WHERE id = ?)", quoteID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: расчёт id=%d: %w", op, quoteID, storage.ErrNotFound)
		}
	}

	return nil
}

func (t *Tx) CreateProductionSteps(ctx context.Context, orderID int64, steps []storage.ProductionStep) error {
	const op = "storage.mysql.CreateProductionSteps"

	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO print_production_steps
			(order_id, title, notes, sort_order, resource_id, resource_type, planned_duration_hours,
			 planned_start_date, assigned_resource_id, assigned_user_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: prepare statement: %w", op, err)
	}
	defer stmt.Close()

	for _, step := range steps {
		_, err := stmt.ExecContext(ctx, orderID, step.Title, step.Notes, step.Order, step.ResourceID, step.ResourceType,
			step.PlannedDurationHours, step.PlannedStartDate, step.AssignedResourceID, step.AssignedUserID, step.Status)
		if err != nil {
			if foreignKeyViolation(err) {
				return fmt.Errorf("%s: заказ id=%d: %w", op, orderID, storage.ErrNotFound)
			}
			return fmt.Errorf("%s: ошибка вставки этапа %q: %w", op, step.Title, err)
		}
	}

	return nil
}

func (t *Tx) UpdateOrderStatus(ctx context.Context, orderID int64, status storage.OrderStatus) error {
	const op = "storage.mysql.UpdateOrderStatus"

	res, err := t.tx.ExecContext(ctx, `UPDATE print_orders SET status = ? WHERE id = ?`, status, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// 0 строк бывает и когда статус не изменился
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := t.tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM print_orders WHERE id = ?)", orderID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: заказ id=%d: %w", op, orderID, storage.ErrNotFound)
		}
	}

	return nil
}
