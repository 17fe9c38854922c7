package storage

import "context"

// Tx is the unit of work handed out by a store's InTx. Everything done through it is
// committed together or not at all.
type Tx interface {
	// LockOrderForPlanning re-reads the order under a row lock. It returns ErrConflict when
	// the order is already PLANNED.
	LockOrderForPlanning(ctx context.Context, orderID int64) (*Order, error)
	FindCompanyOwner(ctx context.Context, companyID int64, role string) (*User, error)
	AcceptQuote(ctx context.Context, quoteID int64) error
	CreateProductionSteps(ctx context.Context, orderID int64, steps []ProductionStep) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus) error
}
