package memory

import (
	"context"
	"fmt"
	"print-calc/internal/storage"
	"slices"
)

func (s *Storage) GetOrderByID(_ context.Context, id int64) (*storage.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.st.orders[id]
	if !ok {
		return nil, fmt.Errorf("storage.memory.GetOrderByID: order %d: %w", id, storage.ErrNotFound)
	}
	return &o, nil
}

// GetQuoteForOrder prefers the accepted quote and otherwise returns the newest one.
func (s *Storage) GetQuoteForOrder(_ context.Context, orderID int64) (*storage.Quote, error) {
	const op = "storage.memory.GetQuoteForOrder"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *storage.Quote
	for _, q := range s.st.quotes {
		if q.OrderID != orderID {
			continue
		}
		if best == nil || preferQuote(q, *best) {
			best = &q
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s: order %d has no quote: %w", op, orderID, storage.ErrNotFound)
	}

	t, ok := s.st.templates[best.TemplateID]
	if !ok {
		return nil, fmt.Errorf("%s: template %d: %w", op, best.TemplateID, storage.ErrNotFound)
	}
	best.Template = &t
	best.CalculationResult = slices.Clone(best.CalculationResult)

	return best, nil
}

func preferQuote(a, b storage.Quote) bool {
	aAcc, bAcc := a.Status == storage.QuoteAccepted, b.Status == storage.QuoteAccepted
	if aAcc != bAcc {
		return aAcc
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (s *Storage) SaveQuote(_ context.Context, q storage.Quote) (int64, error) {
	const op = "storage.memory.SaveQuote"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.orders[q.OrderID]; !ok {
		return 0, fmt.Errorf("%s: order %d: %w", op, q.OrderID, storage.ErrNotFound)
	}
	if _, ok := s.st.templates[q.TemplateID]; !ok {
		return 0, fmt.Errorf("%s: template %d: %w", op, q.TemplateID, storage.ErrNotFound)
	}

	q.ID = s.st.nextID()
	if q.Status == "" {
		q.Status = storage.QuoteDraft
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}
	q.Template = nil
	q.CalculationResult = slices.Clone(q.CalculationResult)

	s.st.quotes[q.ID] = q
	return q.ID, nil
}

func (s *Storage) GetProductionSteps(_ context.Context, orderID int64) ([]storage.ProductionStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := slices.Clone(s.st.steps[orderID])
	slices.SortStableFunc(steps, func(a, b storage.ProductionStep) int { return a.Order - b.Order })
	return steps, nil
}
