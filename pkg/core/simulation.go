package core

// =============================================================================
// Simulations
// =============================================================================

// EntityState holds the per-run sizing of an entity kind. It is owned and
// mutated by whoever initializes the simulation.
type EntityState struct {
	EntityDef
	Count      int `json:"count" yaml:"count"`
	StepSize   int `json:"step_size" yaml:"step_size"`
	RolesCount int `json:"roles_count" yaml:"roles_count"`
}

// Holder stores the values of one variable for a simulation.
type Holder interface {
	// Name returns the variable name.
	Name() string

	// Entity returns the state of the entity the variable belongs to.
	Entity() *EntityState

	// DType returns the declared storage type of the variable.
	DType() DType

	// SetInput stores array as the input value for period.
	SetInput(period Period, array Array) error

	// Array returns the value for the simulation period, if any.
	Array() (Array, bool)

	// SetArray replaces the value for the simulation period.
	SetArray(array Array) error
}

// Simulation is the input state of a microsimulation run.
type Simulation interface {
	RuleSystem() RuleSystem
	Period() Period
	Options() SimulationOptions

	// Entities returns mutable entity states, in rule-system order.
	Entities() []*EntityState

	// Entity returns the state of the entity with the given key.
	Entity(key string) (*EntityState, bool)

	// GetOrNewHolder returns the holder of a variable, creating it on
	// first use. It fails for variables unknown to the rule system.
	GetOrNewHolder(name string) (Holder, error)

	// Holder returns an existing holder.
	Holder(name string) (Holder, bool)

	// Holders returns the names of every created holder, sorted.
	Holders() []string
}

// SimulationOptions carries the debug and trace switches of a run.
type SimulationOptions struct {
	Debug    bool `json:"debug" yaml:"debug"`
	DebugAll bool `json:"debug_all" yaml:"debug_all"`
	Trace    bool `json:"trace" yaml:"trace"`
}

// NewSimulationFunc constructs an empty simulation.
type NewSimulationFunc func(sys RuleSystem, period Period, opts SimulationOptions) (Simulation, error)
