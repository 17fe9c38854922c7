package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"print-calc/internal/storage"
)

func f(v float64) *float64 { return &v }

func machine(rate, setup *float64, speeds map[string]storage.Speed) *storage.Resource {
	return &storage.Resource{
		ID:   1,
		Type: storage.ResourceMachine,
		Name: "Heidelberg SM52",
		CostingProfile: storage.CostingProfile{
			CostPerHour:  rate,
			SetupMinutes: setup,
			Speeds:       speeds,
		},
	}
}

func TestPriceStep(t *testing.T) {
	standaard := func(v float64) map[string]storage.Speed {
		return map[string]storage.Speed{DefaultSpeedTier: {Value: v, Unit: "items/hour"}}
	}

	legacy := machine(nil, f(30), standaard(90))
	legacy.CostPerHour = 45

	tests := []struct {
		name           string
		res            *storage.Resource
		quantity       int
		tier           string
		runHours       float64
		setupHours     float64
		timeHours      float64
		cost           float64
		speedDefaulted bool
	}{
		{
			name:       "full profile",
			res:        machine(f(60), f(15), standaard(100)),
			quantity:   500,
			tier:       DefaultSpeedTier,
			runHours:   5,
			setupHours: 0.25,
			timeHours:  5.25,
			cost:       315,
		},
		{
			name:           "speed absent defaults to one",
			res:            machine(f(30), nil, nil),
			quantity:       10,
			tier:           DefaultSpeedTier,
			runHours:       10,
			timeHours:      10,
			cost:           300,
			speedDefaulted: true,
		},
		{
			name:      "setup absent defaults to zero",
			res:       machine(f(40), nil, standaard(50)),
			quantity:  200,
			tier:      DefaultSpeedTier,
			runHours:  4,
			timeHours: 4,
			cost:      160,
		},
		{
			name:       "legacy flat rate",
			res:        legacy,
			quantity:   90,
			tier:       DefaultSpeedTier,
			runHours:   1,
			setupHours: 0.5,
			timeHours:  1.5,
			cost:       67.5,
		},
		{
			name: "selected tier",
			res: machine(f(50), nil, map[string]storage.Speed{
				DefaultSpeedTier: {Value: 100},
				"Snel":           {Value: 200},
			}),
			quantity:  400,
			tier:      "Snel",
			runHours:  2,
			timeHours: 2,
			cost:      100,
		},
		{
			name:       "zero quantity still pays setup",
			res:        machine(f(60), f(15), standaard(100)),
			quantity:   0,
			tier:       DefaultSpeedTier,
			setupHours: 0.25,
			timeHours:  0.25,
			cost:       15,
		},
		{
			name:           "non-positive speed ignored",
			res:            machine(f(20), nil, standaard(0)),
			quantity:       3,
			tier:           DefaultSpeedTier,
			runHours:       3,
			timeHours:      3,
			cost:           60,
			speedDefaulted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := node("m1", storage.NodeMachine, "Drukken", 100, rid(1))

			out := PriceStep(n, tt.res, tt.quantity, tt.tier)
			require.Equal(t, OutcomePriced, out.Kind)
			require.NotNil(t, out.Priced)
			assert.Nil(t, out.Skip)

			assert.Equal(t, tt.runHours, out.Priced.RunHours)
			assert.Equal(t, tt.setupHours, out.Priced.SetupHours)
			assert.Equal(t, tt.timeHours, out.Priced.TimeHours)
			assert.Equal(t, tt.cost, out.Priced.Cost)
			assert.Equal(t, tt.speedDefaulted, out.Priced.SpeedDefaulted)
		})
	}
}

func TestPriceStep_Skipped(t *testing.T) {
	t.Run("resource missing", func(t *testing.T) {
		out := PriceStep(node("m1", storage.NodeMachine, "Drukken", 0, rid(99)), nil, 100, DefaultSpeedTier)
		require.Equal(t, OutcomeSkipped, out.Kind)
		assert.Nil(t, out.Priced)
		assert.Equal(t, StatusError, out.Skip.Severity)
		assert.Contains(t, out.Skip.Reason, "99")
	})

	t.Run("no resource linked", func(t *testing.T) {
		out := PriceStep(node("l1", storage.NodeLabor, "Inpakken", 0, nil), nil, 100, DefaultSpeedTier)
		require.Equal(t, OutcomeSkipped, out.Kind)
		assert.Equal(t, StatusWarning, out.Skip.Severity)
	})

	t.Run("unpriced node type", func(t *testing.T) {
		out := PriceStep(node("x", "Notitie", "Opmerking", 0, rid(1)), machine(f(1), nil, nil), 100, DefaultSpeedTier)
		require.Equal(t, OutcomeSkipped, out.Kind)
		assert.Equal(t, "Notitie", out.Skip.Type)
	})
}
