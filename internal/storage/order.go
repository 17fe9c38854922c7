package storage

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderNew     OrderStatus = "NEW"
	OrderOnHold  OrderStatus = "ON_HOLD"
	OrderPlanned OrderStatus = "PLANNED"
)

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "DRAFT"
	QuoteAccepted QuoteStatus = "ACCEPTED"
)

type StepStatus string

const (
	StepPending    StepStatus = "PENDING"
	StepPlanned    StepStatus = "PLANNED"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepCompleted  StepStatus = "COMPLETED"
)

const RoleOwner = "owner"

type Order struct {
	ID        int64       `json:"id" yaml:"id"`
	CompanyID int64       `json:"company_id" yaml:"company_id"`
	OrderNum  string      `json:"order_num" yaml:"order_num"`
	DueDate   *time.Time  `json:"due_date" yaml:"due_date"`
	Status    OrderStatus `json:"status" yaml:"status"`
}

type Quote struct {
	ID         int64            `json:"id" yaml:"id"`
	OrderID    int64            `json:"order_id" yaml:"order_id"`
	TemplateID int64            `json:"template_id" yaml:"template_id"`
	Quantity   int              `json:"quantity" yaml:"quantity"`
	Status     QuoteStatus      `json:"status" yaml:"status"`
	Template   *ProductTemplate `json:"product_template,omitempty" yaml:"-"`
	// Результат расчёта хранится как есть, в JSON
	CalculationResult json.RawMessage `json:"calculation_result" yaml:"-"`
	CreatedAt         time.Time       `json:"created_at" yaml:"created_at"`
}

type User struct {
	ID        int64  `json:"id" yaml:"id"`
	CompanyID int64  `json:"company_id" yaml:"company_id"`
	Name      string `json:"name" yaml:"name"`
	Role      string `json:"role" yaml:"role"`
}

type ProductionStep struct {
	ID                   int64        `json:"id" yaml:"id"`
	OrderID              int64        `json:"order_id" yaml:"order_id"`
	Title                string       `json:"title" yaml:"title"`
	Notes                string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Order                int          `json:"order" yaml:"order"`
	ResourceID           *int64       `json:"resource_id" yaml:"resource_id"`
	ResourceType         ResourceType `json:"resource_type,omitempty" yaml:"resource_type,omitempty"`
	PlannedDurationHours float64      `json:"planned_duration_hours" yaml:"planned_duration_hours"`
	PlannedStartDate     *time.Time   `json:"planned_start_date" yaml:"planned_start_date"`
	AssignedResourceID   *int64       `json:"assigned_resource_id" yaml:"assigned_resource_id"`
	AssignedUserID       *int64       `json:"assigned_user_id" yaml:"assigned_user_id"`
	Status               StepStatus   `json:"status" yaml:"status"`
}
