package scenario

import (
	"errors"
	"math"
	"testing"

	"github.com/leapstack-labs/leapsurvey/internal/frame"
	"github.com/leapstack-labs/leapsurvey/internal/rules"
	"github.com/leapstack-labs/leapsurvey/internal/simulation"
	"github.com/leapstack-labs/leapsurvey/internal/testutil"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundScenario(t *testing.T, ds *frame.Dataset, sys core.RuleSystem, inputs []string) *Scenario {
	t.Helper()
	s, err := New(Config{Logger: testutil.NewTestLogger(t)}).InitFromDataFrame(ds, sys, inputs, 2015)
	require.NoError(t, err)
	return s
}

func holderValues(t *testing.T, sim core.Simulation, name string) []float64 {
	t.Helper()
	h, ok := sim.Holder(name)
	require.True(t, ok, "holder %s should exist", name)
	a, ok := h.Array()
	require.True(t, ok, "holder %s should have values", name)
	return a.Values()
}

func TestInitFromDataFrame(t *testing.T) {
	ds := testutil.HouseholdDataset()
	sys := testutil.HouseholdSystem()

	tests := []struct {
		name    string
		ds      *frame.Dataset
		sys     core.RuleSystem
		year    int
		wantErr error
	}{
		{name: "valid", ds: ds, sys: sys, year: 2015},
		{name: "nil dataset", sys: sys, year: 2015, wantErr: ErrNilDataset},
		{name: "nil rule system", ds: ds, year: 2015, wantErr: ErrNilRuleSystem},
		{name: "missing year", ds: ds, sys: sys, wantErr: ErrMissingYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Config{}).InitFromDataFrame(tt.ds, tt.sys, nil, tt.year)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.ds, s.Dataset())
			assert.Equal(t, 2015, s.Year())
			assert.Equal(t, "2015", s.Period().String())
			assert.NotNil(t, s.InputVariables())
			assert.Empty(t, s.InputVariables())
			assert.Nil(t, s.Simulation())
		})
	}
}

func TestNewSimulation_NotInitialized(t *testing.T) {
	_, err := New(Config{}).NewSimulation(Options{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestNewSimulation_Households(t *testing.T) {
	s := newBoundScenario(t, testutil.HouseholdDataset(), testutil.HouseholdSystem(), nil)

	sim, err := s.NewSimulation(Options{})
	require.NoError(t, err)
	assert.Same(t, sim, s.Simulation())

	persons, ok := sim.Entity(testutil.PersonsKey)
	require.True(t, ok)
	assert.Equal(t, 4, persons.Count)
	assert.Equal(t, 4, persons.StepSize)

	households, ok := sim.Entity(testutil.HouseholdKey)
	require.True(t, ok)
	assert.Equal(t, 2, households.Count)
	assert.Equal(t, 2, households.StepSize)
	assert.Equal(t, 2, households.RolesCount)

	assert.Equal(t, []float64{10, 20, 30, 40}, holderValues(t, sim, "salary"))
	assert.Equal(t, []float64{500, 600}, holderValues(t, sim, "rent"))
	assert.Equal(t, []float64{1, 1, 2, 2}, holderValues(t, sim, testutil.HouseholdID))

	rent, _ := sim.Holder("rent")
	rentValues, _ := rent.Array()
	assert.Equal(t, core.DTypeFloat32, rentValues.DType())

	report := s.Report()
	require.NotNil(t, report)
	assert.Equal(t, "households", report.RuleSystem)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, []string{"idmen", "quimen", "salary", "rent"}, report.Injected())
	assert.Len(t, report.Conversions, 4)
	assert.Equal(t, []EntityReport{
		{Key: "individu", Count: 4},
		{Key: "menage", Count: 2, RolesCount: 2},
	}, report.Entities)
}

func TestNewSimulation_RolesCount(t *testing.T) {
	ds := frame.New().
		MustAddColumn("idmen", core.NewIntArray(core.DTypeInt32, []int64{1, 1, 1, 2})).
		MustAddColumn("quimen", core.NewIntArray(core.DTypeInt16, []int64{0, 1, 2, 0})).
		MustAddColumn("rent", core.NewArray(core.DTypeFloat32, []float64{700, 0, 0, 800}))
	s := newBoundScenario(t, ds, testutil.HouseholdSystem(), nil)

	sim, err := s.NewSimulation(Options{})
	require.NoError(t, err)

	households, _ := sim.Entity("menage")
	assert.Equal(t, 2, households.Count)
	assert.Equal(t, 3, households.RolesCount)
	assert.Equal(t, []float64{700, 800}, holderValues(t, sim, "rent"))
}

func TestNewSimulation_EmptyDataset(t *testing.T) {
	ds := frame.New().
		MustAddColumn("idmen", core.NewIntArray(core.DTypeInt32, nil)).
		MustAddColumn("quimen", core.NewIntArray(core.DTypeInt16, nil))
	s := newBoundScenario(t, ds, testutil.HouseholdSystem(), nil)

	sim, err := s.NewSimulation(Options{})
	require.NoError(t, err)

	households, _ := sim.Entity("menage")
	assert.Zero(t, households.Count)
	assert.Zero(t, households.RolesCount)
}

func TestNewSimulation_MissingLinkColumn(t *testing.T) {
	tests := []struct {
		name    string
		drop    string
		wantCol string
	}{
		{name: "missing index", drop: testutil.HouseholdID, wantCol: "idmen"},
		{name: "missing role", drop: testutil.HouseholdRole, wantCol: "quimen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var built *simulation.Simulation
			factory := func(sys core.RuleSystem, p core.Period, o core.SimulationOptions) (core.Simulation, error) {
				sim, err := simulation.New(sys, p, o)
				built = sim
				return sim, err
			}
			s, err := New(Config{NewSimulation: factory}).
				InitFromDataFrame(testutil.HouseholdDataset().Drop(tt.drop), testutil.HouseholdSystem(), nil, 2015)
			require.NoError(t, err)

			_, err = s.NewSimulation(Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingLinkColumn)
			assert.Contains(t, err.Error(), tt.wantCol)

			require.NotNil(t, built)
			assert.Empty(t, built.Holders(), "no holder may be created before the link check")
			assert.Nil(t, s.Simulation())
		})
	}
}

func TestNewSimulation_UnknownColumnDropped(t *testing.T) {
	logger, logs := testutil.NewBufferLogger()
	ds := testutil.HouseholdDataset().
		MustAddColumn("survey_wave", core.NewIntArray(core.DTypeInt16, []int64{3, 3, 3, 3}))
	s, err := New(Config{Logger: logger}).InitFromDataFrame(ds, testutil.HouseholdSystem(), nil, 2015)
	require.NoError(t, err)

	sim, err := s.NewSimulation(Options{})
	require.NoError(t, err)

	_, ok := sim.Holder("survey_wave")
	assert.False(t, ok)
	assert.NotContains(t, sim.Holders(), "survey_wave")
	assert.Contains(t, logs.String(), "unknown column in survey")
	assert.Contains(t, logs.String(), "survey_wave")
	assert.True(t, ds.Has("survey_wave"), "bound dataset must not be mutated")
}

func TestNewSimulation_ComputedColumns(t *testing.T) {
	dataset := func() *frame.Dataset {
		return testutil.HouseholdDataset().
			MustAddColumn("income_tax", core.NewArray(core.DTypeFloat64, []float64{1, 2, 3, 4}))
	}

	t.Run("dropped when not declared as input", func(t *testing.T) {
		s := newBoundScenario(t, dataset(), testutil.HouseholdSystem(), nil)

		sim, err := s.NewSimulation(Options{})
		require.NoError(t, err)

		_, ok := sim.Holder("income_tax")
		assert.False(t, ok)
		d, _ := ColumnPlan{Decisions: s.Report().Columns}.Decision("income_tax")
		assert.Equal(t, ReasonComputed, d.Reason)
	})

	t.Run("kept when declared as input", func(t *testing.T) {
		s := newBoundScenario(t, dataset(), testutil.HouseholdSystem(), []string{"income_tax"})

		sim, err := s.NewSimulation(Options{})
		require.NoError(t, err)

		assert.Equal(t, []float64{1, 2, 3, 4}, holderValues(t, sim, "income_tax"))
	})
}

func TestNewSimulation_UseReference(t *testing.T) {
	base := testutil.HouseholdSystem()
	reform, err := rules.NewReform("reform", base,
		core.Variable{Name: "bonus", Entity: testutil.PersonsKey, DType: core.DTypeFloat32},
	)
	require.NoError(t, err)
	second, err := rules.NewReform("second", reform)
	require.NoError(t, err)

	ds := testutil.HouseholdDataset().
		MustAddColumn("bonus", core.NewArray(core.DTypeFloat32, []float64{1, 1, 1, 1}))

	t.Run("as given", func(t *testing.T) {
		s := newBoundScenario(t, ds, second, nil)
		sim, err := s.NewSimulation(Options{})
		require.NoError(t, err)

		assert.Equal(t, "second", sim.RuleSystem().Name())
		_, ok := sim.Holder("bonus")
		assert.True(t, ok)
	})

	t.Run("reference", func(t *testing.T) {
		s := newBoundScenario(t, ds, second, nil)
		sim, err := s.NewSimulation(Options{UseReference: true, Debug: true})
		require.NoError(t, err)

		assert.Equal(t, "households", sim.RuleSystem().Name())
		assert.True(t, sim.Options().Debug)
		_, ok := sim.Holder("bonus")
		assert.False(t, ok)
	})
}

func TestNewSimulation_Hooks(t *testing.T) {
	var calls []string
	hooks := Hooks{
		InitializeWeights: func(s *Scenario) error {
			require.NotNil(t, s.Simulation())
			calls = append(calls, "weights")
			return nil
		},
		CustomInitialize: func(*Scenario) error {
			calls = append(calls, "custom")
			return nil
		},
	}
	s, err := New(Config{Hooks: hooks}).InitFromDataFrame(testutil.HouseholdDataset(), testutil.HouseholdSystem(), nil, 2015)
	require.NoError(t, err)

	_, err = s.NewSimulation(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"weights", "custom"}, calls)
}

func TestNewSimulation_Rebuild(t *testing.T) {
	s := newBoundScenario(t, testutil.HouseholdDataset(), testutil.HouseholdSystem(), nil)

	first, err := s.NewSimulation(Options{})
	require.NoError(t, err)
	second, err := s.NewSimulation(Options{})
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Same(t, second, s.Simulation())
	assert.Equal(t, []float64{10, 20, 30, 40}, holderValues(t, second, "salary"))
}

func TestNewSimulation_HookError(t *testing.T) {
	boom := errors.New("boom")
	s, err := New(Config{Hooks: Hooks{CustomInitialize: func(*Scenario) error { return boom }}}).
		InitFromDataFrame(testutil.HouseholdDataset(), testutil.HouseholdSystem(), nil, 2015)
	require.NoError(t, err)

	_, err = s.NewSimulation(Options{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "custom_initialize")
	assert.Nil(t, s.Simulation())
}

func TestSizeError(t *testing.T) {
	err := error(&SizeError{Column: "rent", Entity: "menage", Got: 3, Want: 2})

	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Equal(t, "bad size for rent: 3 instead of 2 (menage)", err.Error())

	var sizeErr *SizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, "rent", sizeErr.Column)
}

func TestNewSimulation_NaNRole(t *testing.T) {
	nan := math.NaN()
	ds := frame.New().
		MustAddColumn("idmen", core.NewIntArray(core.DTypeInt64, []int64{1, 1})).
		MustAddColumn("quimen", core.NewArray(core.DTypeFloat64, []float64{nan, 0}))

	t.Run("role column unknown to rule system", func(t *testing.T) {
		sys := rules.MustNewSystem("households", testutil.HouseholdEntities(),
			core.Variable{Name: "idmen", Entity: testutil.PersonsKey, DType: core.DTypeInt32},
		)
		s := newBoundScenario(t, ds, sys, nil)

		sim, err := s.NewSimulation(Options{})
		require.NoError(t, err)

		households, _ := sim.Entity("menage")
		assert.Equal(t, 1, households.Count)
		assert.Equal(t, 1, households.RolesCount)
	})

	t.Run("role column injected as integer", func(t *testing.T) {
		s := newBoundScenario(t, ds, testutil.HouseholdSystem(), nil)

		_, err := s.NewSimulation(Options{})
		assert.ErrorIs(t, err, core.ErrOutOfRange)
		assert.Contains(t, err.Error(), "quimen")
	})
}

func TestNewSimulation_Int64Exact(t *testing.T) {
	const ident = 1<<53 + 1
	sys := rules.MustNewSystem("households", testutil.HouseholdEntities(),
		core.Variable{Name: "idmen", Entity: testutil.PersonsKey, DType: core.DTypeInt64},
		core.Variable{Name: "quimen", Entity: testutil.PersonsKey, DType: core.DTypeInt16},
		core.Variable{Name: "ident", Entity: testutil.PersonsKey, DType: core.DTypeInt64},
	)
	ds := frame.New().
		MustAddColumn("idmen", core.NewIntArray(core.DTypeInt64, []int64{ident, ident})).
		MustAddColumn("quimen", core.NewIntArray(core.DTypeInt64, []int64{0, 1})).
		MustAddColumn("ident", core.NewIntArray(core.DTypeInt64, []int64{ident, ident + 2}))
	s := newBoundScenario(t, ds, sys, nil)

	sim, err := s.NewSimulation(Options{})
	require.NoError(t, err)

	h, ok := sim.Holder("ident")
	require.True(t, ok)
	got, _ := h.Array()
	assert.Equal(t, core.NewIntArray(core.DTypeInt64, []int64{ident, ident + 2}), got)
}

func TestNewSimulation_ColumnOutOfRange(t *testing.T) {
	ds := testutil.HouseholdDataset().Drop(testutil.HouseholdID).
		MustAddColumn(testutil.HouseholdID, core.NewArray(core.DTypeFloat64, []float64{1, 1, 3e9, 3e9}))
	s := newBoundScenario(t, ds, testutil.HouseholdSystem(), nil)

	_, err := s.NewSimulation(Options{})
	assert.ErrorIs(t, err, core.ErrOutOfRange)
	assert.Contains(t, err.Error(), "column idmen")
	assert.Nil(t, s.Simulation())
}

// fixedCountSimulation reports a fixed entity count on every holder, so the
// injected arrays no longer match.
type fixedCountSimulation struct {
	*simulation.Simulation
	count int
}

func (s fixedCountSimulation) GetOrNewHolder(name string) (core.Holder, error) {
	h, err := s.Simulation.GetOrNewHolder(name)
	if err != nil {
		return nil, err
	}
	return fixedCountHolder{Holder: h, count: s.count}, nil
}

type fixedCountHolder struct {
	core.Holder
	count int
}

func (h fixedCountHolder) Entity() *core.EntityState {
	e := *h.Holder.Entity()
	e.Count = h.count
	return &e
}

func TestNewSimulation_SizeMismatch(t *testing.T) {
	factory := func(sys core.RuleSystem, p core.Period, o core.SimulationOptions) (core.Simulation, error) {
		sim, err := simulation.New(sys, p, o)
		if err != nil {
			return nil, err
		}
		return fixedCountSimulation{Simulation: sim, count: 99}, nil
	}
	s, err := New(Config{NewSimulation: factory}).
		InitFromDataFrame(testutil.HouseholdDataset(), testutil.HouseholdSystem(), nil, 2015)
	require.NoError(t, err)

	_, err = s.NewSimulation(Options{})
	require.ErrorIs(t, err, ErrSizeMismatch)

	var sizeErr *SizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, testutil.HouseholdID, sizeErr.Column)
	assert.Equal(t, 4, sizeErr.Got)
	assert.Equal(t, 99, sizeErr.Want)
	assert.Nil(t, s.Simulation())
}
