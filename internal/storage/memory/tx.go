package memory

import (
	"context"
	"fmt"
	"print-calc/internal/storage"
)

type Tx struct {
	st *state
}

// InTx runs fn against a private copy of the data and publishes the copy only when fn
// succeeds. Transactions are serialized; fn must not call back into the Storage itself.
func (s *Storage) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("storage.memory.InTx: %w", err)
	}

	work := s.st.clone()
	if err := fn(&Tx{st: work}); err != nil {
		return err
	}

	s.st = work
	return nil
}

func (t *Tx) LockOrderForPlanning(_ context.Context, orderID int64) (*storage.Order, error) {
	const op = "storage.memory.LockOrderForPlanning"

	// транзакции сериализованы, рабочая копия уже видит все закоммиченные планы
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%s: order %d: %w", op, orderID, storage.ErrNotFound)
	}
	if o.Status == storage.OrderPlanned {
		return nil, fmt.Errorf("%s: order %d is already planned: %w", op, orderID, storage.ErrConflict)
	}
	return &o, nil
}

func (t *Tx) FindCompanyOwner(_ context.Context, companyID int64, role string) (*storage.User, error) {
	var owner *storage.User
	for _, u := range t.st.users {
		if u.CompanyID != companyID || u.Role != role {
			continue
		}
		if owner == nil || u.ID < owner.ID {
			owner = &u
		}
	}
	if owner == nil {
		return nil, fmt.Errorf("storage.memory.FindCompanyOwner: company %d has no %s: %w", companyID, role, storage.ErrNotFound)
	}
	return owner, nil
}

func (t *Tx) AcceptQuote(_ context.Context, quoteID int64) error {
	q, ok := t.st.quotes[quoteID]
	if !ok {
		return fmt.Errorf("storage.memory.AcceptQuote: quote %d: %w", quoteID, storage.ErrNotFound)
	}
	q.Status = storage.QuoteAccepted
	t.st.quotes[quoteID] = q
	return nil
}

func (t *Tx) CreateProductionSteps(_ context.Context, orderID int64, steps []storage.ProductionStep) error {
	if _, ok := t.st.orders[orderID]; !ok {
		return fmt.Errorf("storage.memory.CreateProductionSteps: order %d: %w", orderID, storage.ErrNotFound)
	}

	for _, step := range steps {
		step.ID = t.st.nextID()
		step.OrderID = orderID
		t.st.steps[orderID] = append(t.st.steps[orderID], step)
	}
	return nil
}

func (t *Tx) UpdateOrderStatus(_ context.Context, orderID int64, status storage.OrderStatus) error {
	o, ok := t.st.orders[orderID]
	if !ok {
		return fmt.Errorf("storage.memory.UpdateOrderStatus: order %d: %w", orderID, storage.ErrNotFound)
	}
	o.Status = status
	t.st.orders[orderID] = o
	return nil
}
