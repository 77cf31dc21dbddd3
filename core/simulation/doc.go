// Package simulation integrates the state of charge and temperature of a
// smartphone battery over a usage schedule. Each tick computes the component
// power draw, derates capacity at the current temperature and advances both
// states with one explicit Euler step. Runs are deterministic and purely
// computational; exporting or publishing a trajectory is left to callers.
package simulation
