// Package battleengine contains the Reel Rivals battle engine, which pairs
// tagged videos into timed battles and records one vote per user per
// battle.
//
// Domain and application code stay decoupled from runtime concerns through
// ports; adapters and workers are composed in module.go.
package battleengine
