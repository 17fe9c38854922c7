package memory

import (
	"context"
	"encoding/json"
	"errors"
	"print-calc/internal/storage"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtures(t *testing.T) *Storage {
	t.Helper()
	s, err := LoadFile("testdata/fixtures.yaml")
	require.NoError(t, err)
	return s
}

func TestLoadFile(t *testing.T) {
	s := loadFixtures(t)
	ctx := context.Background()

	tpl, err := s.GetTemplateByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Flyer 140x150", tpl.Name)
	require.NotNil(t, tpl.DefaultMaterialID)
	assert.Equal(t, int64(7), *tpl.DefaultMaterialID)
	require.NotNil(t, tpl.WorkflowDefinition)
	assert.Len(t, tpl.WorkflowDefinition.Nodes, 3)
	assert.Equal(t, int64(1), *tpl.WorkflowDefinition.Nodes[1].Data.ResourceID)
	assert.Equal(t, 100.0, tpl.WorkflowDefinition.Nodes[1].Position.Y)

	res, err := s.FindResourceByID(ctx, storage.ResourceMachine, 1)
	require.NoError(t, err)
	require.NotNil(t, res.CostingProfile.CostPerHour)
	assert.Equal(t, 60.0, *res.CostingProfile.CostPerHour)
	assert.Equal(t, 250.0, res.CostingProfile.Speeds["Snel"].Value)

	legacy, err := s.FindResourceByID(ctx, storage.ResourceFinishing, 2)
	require.NoError(t, err)
	assert.Nil(t, legacy.CostingProfile.CostPerHour)
	assert.Equal(t, 40.0, legacy.CostPerHour)

	order, err := s.GetOrderByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, storage.OrderNew, order.Status)
	require.NotNil(t, order.DueDate)
	assert.True(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC).Equal(*order.DueDate))
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown field", doc: "materials:\n  - id: 1\n    colour: red\n"},
		{name: "unknown resource type", doc: "resources:\n  - id: 1\n    type: robot\n"},
		{name: "duplicate template", doc: "templates:\n  - id: 1\n  - id: 1\n"},
		{name: "quote without order", doc: "quotes:\n  - id: 1\n    order_id: 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}

	s, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	_, err = s.GetTemplateByID(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_NotFound(t *testing.T) {
	s := loadFixtures(t)
	ctx := context.Background()

	_, err := s.FindResourceByID(ctx, storage.ResourceLabor, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.FindMaterialByID(ctx, 8)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetOrderByID(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetQuoteForOrder(ctx, 101)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetAllTemplates_ActiveOnly(t *testing.T) {
	s := loadFixtures(t)

	all, err := s.GetAllTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Flyer 140x150", all[0].Name)
	assert.Equal(t, "Folder gevouwen", all[1].Name)
	assert.Nil(t, all[0].WorkflowDefinition)

	// список не должен портить сами шаблоны
	tpl, err := s.GetTemplateByID(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, tpl.WorkflowDefinition)
}

func TestGetAllMaterials(t *testing.T) {
	s, err := Load(strings.NewReader(`
materials:
  - { id: 9, name: Silk, price: 2.5, width: 450, height: 320 }
  - { id: 3, name: Bankpost, price: 0.8, width: 430, height: 305 }
  - { id: 4, name: Silk, price: 2.9, width: 640, height: 450 }
`))
	require.NoError(t, err)

	all, err := s.GetAllMaterials(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 4, 9}, []int64{all[0].ID, all[1].ID, all[2].ID})
}

func TestSaveTemplate(t *testing.T) {
	s := loadFixtures(t)
	ctx := context.Background()

	id, err := s.SaveTemplate(ctx, storage.ProductTemplate{Name: "Poster", IsActive: true})
	require.NoError(t, err)
	assert.Greater(t, id, int64(900))

	_, err = s.SaveTemplate(ctx, storage.ProductTemplate{ID: id, Name: "Poster A2", IsActive: true})
	require.NoError(t, err)

	tpl, err := s.GetTemplateByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Poster A2", tpl.Name)

	_, err = s.SaveTemplate(ctx, storage.ProductTemplate{ID: 12345})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	missing := int64(99)
	_, err = s.SaveTemplate(ctx, storage.ProductTemplate{Name: "x", DefaultMaterialID: &missing})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetQuoteForOrder_PrefersAccepted(t *testing.T) {
	s := loadFixtures(t)
	ctx := context.Background()

	raw := json.RawMessage(`{"lines": []}`)
	newer, err := s.SaveQuote(ctx, storage.Quote{OrderID: 100, TemplateID: 43, Quantity: 10, CalculationResult: raw})
	require.NoError(t, err)

	q, err := s.GetQuoteForOrder(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(900), q.ID)
	require.NotNil(t, q.Template)
	assert.Equal(t, int64(42), q.Template.ID)

	// без принятого расчёта берём самый свежий
	_, err = s.SaveQuote(ctx, storage.Quote{OrderID: 101, TemplateID: 42, Quantity: 1, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	latest, err := s.SaveQuote(ctx, storage.Quote{OrderID: 101, TemplateID: 43, Quantity: 2, CalculationResult: raw, CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	q, err = s.GetQuoteForOrder(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, latest, q.ID)
	assert.Equal(t, storage.QuoteDraft, q.Status)
	assert.JSONEq(t, string(raw), string(q.CalculationResult))

	assert.NotEqual(t, newer, latest)

	_, err = s.SaveQuote(ctx, storage.Quote{OrderID: 1, TemplateID: 42})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInTx(t *testing.T) {
	ctx := context.Background()
	steps := []storage.ProductionStep{
		{Title: "Start", Order: 0, Status: storage.StepCompleted},
		{Title: "Drukken", Order: 1, Status: storage.StepPending, PlannedDurationHours: 5.25},
	}

	t.Run("commit", func(t *testing.T) {
		s := loadFixtures(t)

		err := s.InTx(ctx, func(tx storage.Tx) error {
			owner, err := tx.FindCompanyOwner(ctx, 1, storage.RoleOwner)
			require.NoError(t, err)
			assert.Equal(t, int64(500), owner.ID)

			if err := tx.AcceptQuote(ctx, 900); err != nil {
				return err
			}
			if err := tx.CreateProductionSteps(ctx, 100, steps); err != nil {
				return err
			}
			return tx.UpdateOrderStatus(ctx, 100, storage.OrderPlanned)
		})
		require.NoError(t, err)

		got, err := s.GetProductionSteps(ctx, 100)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Drukken", got[1].Title)
		assert.Equal(t, int64(100), got[1].OrderID)
		assert.NotZero(t, got[1].ID)

		order, err := s.GetOrderByID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, storage.OrderPlanned, order.Status)
	})

	t.Run("rollback", func(t *testing.T) {
		s := loadFixtures(t)
		boom := errors.New("boom")

		err := s.InTx(ctx, func(tx storage.Tx) error {
			require.NoError(t, tx.CreateProductionSteps(ctx, 100, steps))
			require.NoError(t, tx.UpdateOrderStatus(ctx, 100, storage.OrderPlanned))
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.GetProductionSteps(ctx, 100)
		require.NoError(t, err)
		assert.Empty(t, got)

		order, err := s.GetOrderByID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, storage.OrderNew, order.Status)
	})

	t.Run("tx errors", func(t *testing.T) {
		s := loadFixtures(t)

		err := s.InTx(ctx, func(tx storage.Tx) error {
			_, err := tx.FindCompanyOwner(ctx, 2, storage.RoleOwner)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			assert.ErrorIs(t, tx.AcceptQuote(ctx, 1), storage.ErrNotFound)
			assert.ErrorIs(t, tx.CreateProductionSteps(ctx, 1, steps), storage.ErrNotFound)
			assert.ErrorIs(t, tx.UpdateOrderStatus(ctx, 1, storage.OrderOnHold), storage.ErrNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("lock order for planning", func(t *testing.T) {
		s := loadFixtures(t)

		err := s.InTx(ctx, func(tx storage.Tx) error {
			order, err := tx.LockOrderForPlanning(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, int64(1), order.CompanyID)

			_, err = tx.LockOrderForPlanning(ctx, 1)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			return tx.UpdateOrderStatus(ctx, 100, storage.OrderPlanned)
		})
		require.NoError(t, err)

		err = s.InTx(ctx, func(tx storage.Tx) error {
			_, err := tx.LockOrderForPlanning(ctx, 100)
			return err
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := loadFixtures(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		called := false
		err := s.InTx(cctx, func(tx storage.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
