package ecs

import "github.com/rotisserie/eris"

// Sentinel errors for the failures a caller can meaningfully recover
// from (everything else is recovered locally and never surfaced).
var (
	ErrObserverNoWatch  = eris.New("ecs: observer watch() returned no component key")
	ErrCyclicDependency = eris.New("ecs: cyclic system dependency")
)
