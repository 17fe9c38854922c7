package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"print-calc/internal/storage"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertMaterial(t *testing.T, price float64) int64 {
	res, err := testDB.Exec(`INSERT INTO print_materials (name, price, width, height, thickness) VALUES (?, ?, ?, ?, ?)`,
		"Silk 170g", price, 450, 320, 0.17)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func insertMachine(t *testing.T, profile any) int64 {
	res, err := testDB.Exec(`INSERT INTO print_machines (name, cost_per_hour, costing_profile) VALUES (?, ?, ?)`,
		"SM52", 45, profile)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func insertOrder(t *testing.T, companyID int64, due *time.Time) int64 {
	res, err := testDB.Exec(`INSERT INTO print_orders (company_id, order_num, due_date, status) VALUES (?, ?, ?, ?)`,
		companyID, "T-"+time.Now().Format("150405.000000"), due, storage.OrderNew)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func flyer(materialID, machineID int64) storage.ProductTemplate {
	return storage.ProductTemplate{
		Name:              "Flyer A5",
		Category:          "flyers",
		DefaultMaterialID: &materialID,
		Width:             148,
		Height:            210,
		IsActive:          true,
		WorkflowDefinition: &storage.WorkflowGraph{
			Nodes: []storage.Node{
				{ID: "s", Data: storage.NodeData{Type: storage.NodeStart, Label: "Start"}},
				{ID: "m1", Data: storage.NodeData{Type: storage.NodeMachine, Label: "Drukken", ResourceID: &machineID}, Position: storage.Position{Y: 100}},
				{ID: "e", Data: storage.NodeData{Type: storage.NodeEnd, Label: "Einde"}, Position: storage.Position{Y: 200}},
			},
			Edges: []storage.Edge{{Source: "s", Target: "m1"}, {Source: "m1", Target: "e"}},
		},
	}
}

func TestStorage_TemplateRoundTrip(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	materialID := insertMaterial(t, 2.5)
	machineID := insertMachine(t, `{"costPerHour": 60, "setupMinutes": 15, "speeds": {"Standaard": {"value": 100, "unit": "items/hour"}}}`)

	id, err := s.SaveTemplate(ctx, flyer(materialID, machineID))
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.GetTemplateByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Flyer A5", got.Name)
	require.NotNil(t, got.DefaultMaterialID)
	assert.Equal(t, materialID, *got.DefaultMaterialID)
	require.NotNil(t, got.WorkflowDefinition)
	assert.Len(t, got.WorkflowDefinition.Nodes, 3)
	assert.Equal(t, machineID, *got.WorkflowDefinition.Nodes[1].Data.ResourceID)

	tpl := *got
	tpl.Name = "Flyer A5 glossy"
	_, err = s.SaveTemplate(ctx, tpl)
	require.NoError(t, err)

	got, err = s.GetTemplateByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Flyer A5 glossy", got.Name)

	all, err := s.GetAllTemplates(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, all)
}

func TestStorage_NotFound(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	_, err := s.GetTemplateByID(ctx, -1)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = s.FindMaterialByID(ctx, -1)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = s.FindResourceByID(ctx, storage.ResourceLabor, -1)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = s.GetOrderByID(ctx, -1)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = s.SaveTemplate(ctx, storage.ProductTemplate{ID: -1, Name: "ghost"})
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStorage_FindResourceByID(t *testing.T) {
	s := testStorage(t)

	withProfile := insertMachine(t, `{"costPerHour": 60, "setupMinutes": 15, "speeds": {"Standaard": {"value": 100, "unit": "items/hour"}}}`)
	legacy := insertMachine(t, nil)

	res, err := s.FindResourceByID(context.Background(), storage.ResourceMachine, withProfile)
	require.NoError(t, err)
	assert.Equal(t, storage.ResourceMachine, res.Type)
	require.NotNil(t, res.CostingProfile.CostPerHour)
	assert.Equal(t, 60.0, *res.CostingProfile.CostPerHour)
	assert.Equal(t, 100.0, res.CostingProfile.Speeds["Standaard"].Value)

	res, err = s.FindResourceByID(context.Background(), storage.ResourceMachine, legacy)
	require.NoError(t, err)
	assert.Nil(t, res.CostingProfile.CostPerHour)
	assert.Equal(t, 45.0, res.CostPerHour)
}

func TestStorage_GetAllMaterials(t *testing.T) {
	s := testStorage(t)

	id := insertMaterial(t, 3.75)

	all, err := s.GetAllMaterials(context.Background())
	require.NoError(t, err)

	var found *storage.Material
	for _, m := range all {
		if m.ID == id {
			found = m
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 3.75, found.Price)
	assert.Equal(t, 450.0, found.Width)
}

func TestStorage_QuoteIsStoredVerbatim(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	materialID := insertMaterial(t, 2.5)
	machineID := insertMachine(t, `{"costPerHour": 60}`)
	templateID, err := s.SaveTemplate(ctx, flyer(materialID, machineID))
	require.NoError(t, err)
	orderID := insertOrder(t, 1, nil)

	raw := json.RawMessage(`{"lines":[{"calculationDetails":{"durations":{"m1":5.25}}}],  "error":false}`)
	quoteID, err := s.SaveQuote(ctx, storage.Quote{OrderID: orderID, TemplateID: templateID, Quantity: 500, CalculationResult: raw})
	require.NoError(t, err)

	q, err := s.GetQuoteForOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, quoteID, q.ID)
	assert.Equal(t, storage.QuoteDraft, q.Status)
	assert.Equal(t, string(raw), string(q.CalculationResult))
	require.NotNil(t, q.Template)
	assert.Equal(t, templateID, q.Template.ID)

	_, err = s.SaveQuote(ctx, storage.Quote{OrderID: -1, TemplateID: templateID, Quantity: 1})
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStorage_InTx(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	companyID := time.Now().UnixNano() % 1_000_000_000
	_, err := testDB.Exec(`INSERT INTO print_users (company_id, name, role) VALUES (?, ?, ?)`, companyID, "Eigenaar", storage.RoleOwner)
	require.NoError(t, err)

	due := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	orderID := insertOrder(t, companyID, &due)
	resourceID := int64(3)

	steps := []storage.ProductionStep{
		{Title: "Start", Order: 0, Status: storage.StepCompleted},
		{Title: "Drukken", Order: 1, ResourceID: &resourceID, ResourceType: storage.ResourceMachine, PlannedDurationHours: 1.0 / 3,
			PlannedStartDate: &due, AssignedResourceID: &resourceID, Status: storage.StepPlanned},
	}

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.InTx(ctx, func(tx storage.Tx) error {
			require.NoError(t, tx.CreateProductionSteps(ctx, orderID, steps))
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.GetProductionSteps(ctx, orderID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("commit", func(t *testing.T) {
		err := s.InTx(ctx, func(tx storage.Tx) error {
			owner, err := tx.FindCompanyOwner(ctx, companyID, storage.RoleOwner)
			if err != nil {
				return err
			}
			assert.Equal(t, "Eigenaar", owner.Name)

			if err := tx.CreateProductionSteps(ctx, orderID, steps); err != nil {
				return err
			}
			return tx.UpdateOrderStatus(ctx, orderID, storage.OrderPlanned)
		})
		require.NoError(t, err)

		got, err := s.GetProductionSteps(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Drukken", got[1].Title)
		// длительность хранится без округления, как в памяти
		assert.Equal(t, 1.0/3, got[1].PlannedDurationHours)
		require.NotNil(t, got[1].PlannedStartDate)
		assert.True(t, due.Equal(*got[1].PlannedStartDate))

		order, err := s.GetOrderByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, storage.OrderPlanned, order.Status)
	})

	t.Run("planned order is locked out", func(t *testing.T) {
		err := s.InTx(ctx, func(tx storage.Tx) error {
			_, err := tx.LockOrderForPlanning(ctx, orderID)
			return err
		})
		assert.True(t, errors.Is(err, storage.ErrConflict))

		err = s.InTx(ctx, func(tx storage.Tx) error {
			_, err := tx.LockOrderForPlanning(ctx, -1)
			return err
		})
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("update status of unknown order", func(t *testing.T) {
		err := s.InTx(ctx, func(tx storage.Tx) error {
			return tx.UpdateOrderStatus(ctx, -1, storage.OrderOnHold)
		})
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		// повторная установка того же статуса не ошибка
		err = s.InTx(ctx, func(tx storage.Tx) error {
			return tx.UpdateOrderStatus(ctx, orderID, storage.OrderPlanned)
		})
		assert.NoError(t, err)
	})

	t.Run("no owner", func(t *testing.T) {
		err := s.InTx(ctx, func(tx storage.Tx) error {
			_, err := tx.FindCompanyOwner(ctx, -companyID, storage.RoleOwner)
			return err
		})
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}
