// Package resilience provides the timeout guard and retry policy the
// pipeline wraps around handler execution.
//
// The pipeline applies retry outside the timeout guard, so each attempt
// gets its own full timeout budget. Total wall time can therefore exceed
// the nominal timeout by up to attempts x timeout. This is a deliberate,
// observable policy choice.
package resilience
