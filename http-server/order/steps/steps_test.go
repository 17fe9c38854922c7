package steps

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"print-calc/internal/storage"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStepsGetter struct {
	mock.Mock
}

func (m *MockStepsGetter) GetOrderByID(ctx context.Context, id int64) (*storage.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Order), args.Error(1)
}

func (m *MockStepsGetter) GetProductionSteps(ctx context.Context, orderID int64) ([]storage.ProductionStep, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ProductionStep), args.Error(1)
}

func serve(getter StepsGetter, id string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Get("/api/orders/{id}/steps", GetSteps(slog.Default(), getter))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/"+id+"/steps", nil))
	return rr
}

func TestGetSteps_Success(t *testing.T) {
	getter := new(MockStepsGetter)
	rid := int64(1)
	getter.On("GetOrderByID", mock.Anything, int64(100)).
		Return(&storage.Order{ID: 100, Status: storage.OrderPlanned}, nil)
	getter.On("GetProductionSteps", mock.Anything, int64(100)).Return([]storage.ProductionStep{
		{ID: 1, OrderID: 100, Title: "Start", Order: 0, Status: storage.StepCompleted},
		{ID: 2, OrderID: 100, Title: "Drukken", Order: 1, ResourceID: &rid, PlannedDurationHours: 2.25, Status: storage.StepPlanned},
	}, nil)

	rr := serve(getter, "100")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp Response
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, storage.OrderPlanned, resp.Status)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, "Drukken", resp.Steps[1].Title)
	assert.Equal(t, 2.25, resp.Steps[1].PlannedDurationHours)

	getter.AssertExpectations(t)
}

func TestGetSteps_EmptyList(t *testing.T) {
	getter := new(MockStepsGetter)
	getter.On("GetOrderByID", mock.Anything, int64(5)).Return(&storage.Order{ID: 5, Status: storage.OrderNew}, nil)
	getter.On("GetProductionSteps", mock.Anything, int64(5)).Return(nil, nil)

	rr := serve(getter, "5")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"steps":[]`)
}

func TestGetSteps_Errors(t *testing.T) {
	t.Run("bad id", func(t *testing.T) {
		rr := serve(new(MockStepsGetter), "0")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		getter := new(MockStepsGetter)
		getter.On("GetOrderByID", mock.Anything, int64(9)).Return(nil, storage.ErrNotFound)

		rr := serve(getter, "9")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		getter.AssertNotCalled(t, "GetProductionSteps", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		getter := new(MockStepsGetter)
		getter.On("GetOrderByID", mock.Anything, int64(9)).Return(&storage.Order{ID: 9}, nil)
		getter.On("GetProductionSteps", mock.Anything, int64(9)).Return(nil, errors.New("db down"))

		rr := serve(getter, "9")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
