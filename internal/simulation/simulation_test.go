package simulation

import (
	"testing"

	"github.com/leapstack-labs/leapsurvey/internal/rules"
	"github.com/leapstack-labs/leapsurvey/internal/testutil"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSystem() *rules.System {
	return rules.MustNewSystem("test",
		[]core.EntityDef{
			{Key: "individu", IsPersons: true},
			{Key: "menage", IndexColumn: "idmen", RoleColumn: "quimen"},
		},
		core.Variable{Name: "salary", Entity: "individu", DType: core.DTypeFloat32},
		core.Variable{Name: "rent", Entity: "menage", DType: core.DTypeInt32},
	)
}

func TestNew(t *testing.T) {
	sim, err := New(testSystem(), core.PeriodFromYear(2015), core.SimulationOptions{Debug: true, Trace: true},
		WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)

	assert.Equal(t, "2015", sim.Period().String())
	assert.True(t, sim.Options().Debug)
	require.Len(t, sim.Entities(), 2)
	assert.Equal(t, "individu", sim.Entities()[0].Key)
	assert.Zero(t, sim.Entities()[0].Count)

	_, err = New(nil, core.PeriodFromYear(2015), core.SimulationOptions{})
	assert.Error(t, err)
	_, err = New(testSystem(), core.Period{}, core.SimulationOptions{})
	assert.Error(t, err)
}

func TestGetOrNewHolder(t *testing.T) {
	sim, err := New(testSystem(), core.PeriodFromYear(2015), core.SimulationOptions{})
	require.NoError(t, err)

	h, err := sim.GetOrNewHolder("rent")
	require.NoError(t, err)
	assert.Equal(t, "menage", h.Entity().Key)
	assert.Equal(t, core.DTypeInt32, h.DType())

	again, err := sim.GetOrNewHolder("rent")
	require.NoError(t, err)
	assert.Same(t, h, again)

	_, err = sim.GetOrNewHolder("unknown")
	assert.ErrorIs(t, err, ErrUnknownVariable)

	_, ok := sim.Holder("salary")
	assert.False(t, ok)
	assert.Equal(t, []string{"rent"}, sim.Holders())
}

func TestHolder_SetInput(t *testing.T) {
	period := core.PeriodFromYear(2015)
	sim, err := New(testSystem(), period, core.SimulationOptions{})
	require.NoError(t, err)
	menage, _ := sim.Entity("menage")
	menage.Count = 2

	h, err := sim.GetOrNewHolder("rent")
	require.NoError(t, err)

	_, ok := h.Array()
	assert.False(t, ok)

	err = h.SetInput(period, core.NewArray(core.DTypeFloat64, []float64{500.7, 600.2}))
	require.NoError(t, err)

	got, ok := h.Array()
	require.True(t, ok)
	assert.Equal(t, core.DTypeInt32, got.DType())
	assert.Equal(t, []float64{500, 600}, got.Values())

	err = h.SetInput(core.PeriodFromYear(2016), core.NewArray(core.DTypeInt32, []float64{1, 2}))
	assert.ErrorIs(t, err, ErrWrongPeriod)

	err = h.SetInput(period, core.NewArray(core.DTypeInt32, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrWrongLength)

	require.NoError(t, h.SetArray(core.NewArray(core.DTypeInt32, []float64{1, 2})))
	got, _ = h.Array()
	assert.Equal(t, []float64{1, 2}, got.Values())
}

func TestHolder_SetInputOutOfRange(t *testing.T) {
	period := core.PeriodFromYear(2015)
	sim, err := New(testSystem(), period, core.SimulationOptions{})
	require.NoError(t, err)
	menage, _ := sim.Entity("menage")
	menage.Count = 2

	h, err := sim.GetOrNewHolder("rent")
	require.NoError(t, err)

	err = h.SetInput(period, core.NewArray(core.DTypeFloat64, []float64{500, 3e9}))
	assert.ErrorIs(t, err, core.ErrOutOfRange)
	_, ok := h.Array()
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	newSim := Factory()
	sim, err := newSim(testSystem(), core.PeriodFromYear(2020), core.SimulationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "test", sim.RuleSystem().Name())
}
