// Package contrib provides additional functionality and utilities
// built on top of the core tether supervisor.
//
// Everything under this directory extends the core library with features
// that are useful but not part of the supervisor itself.
//
// Note that this package is outside of the backward compatibility guarantees
// provided by the core library. Changes to this package may introduce
// breaking changes without following semantic versioning.
//
// The contrib directory currently includes
// [github.com/tetherd/tether.go/contrib/resub], which keeps pub/sub channel
// subscriptions alive across the reconnections a supervisor performs.
package contrib
