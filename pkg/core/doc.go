// Package core defines the shared language of the LeapSQL survey tooling.
//
// This package contains:
//   - Value types (DType, Array, Period)
//   - Rule-system contracts (EntityDef, Variable, RuleSystem)
//   - Simulation contracts (EntityState, Holder, Simulation)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
