package system

import "github.com/l1jgo/ecsruntime/ecs"

// Process runs one tick for every system registered under group, in
// the scheduler's sorted order. It flushes any deferred world calls
// queued by the previous tick before dispatching the first system, so
// observer handlers deferred last tick run before this tick's systems
// see the world.
func (s *Scheduler) Process(delta float64, group string) error {
	s.world.FlushDeferred()
	for _, e := range s.groups[group] {
		if gate, ok := e.sys.(ActiveGate); ok && !gate.Active() {
			continue
		}
		if base, ok := e.sys.(interface{ Paused() bool }); ok && base.Paused() {
			continue
		}
		s.dispatchOne(e, delta)
	}
	return nil
}

// dispatchOne runs a single system's tick: subsystem tuples if it
// implements SubSystemer and has any, else the single Query()/Process
// path via ProcessAll's default semantics.
func (s *Scheduler) dispatchOne(e *entry, delta float64) {
	if sub, ok := e.sys.(SubSystemer); ok && !e.singleQuery {
		if !e.subsChecked {
			e.subsystems = sub.SubSystems(s.world)
			e.subsChecked = true
			if len(e.subsystems) == 0 {
				e.singleQuery = true
			}
		}
		if len(e.subsystems) > 0 {
			for _, tuple := range e.subsystems {
				entities := s.runQuery(tuple.Query)
				if tuple.AllAtOnce {
					tuple.Callable(entities, delta)
					continue
				}
				for _, ent := range entities {
					tuple.Callable([]*ecs.Entity{ent}, delta)
				}
			}
			return
		}
	}

	if !e.queryBound {
		e.querySpec = e.sys.Query()
		e.queryBound = true
	}
	entities := s.runQuery(e.querySpec)
	s.processAll(e, entities, delta)
}

// runQuery turns a memoized QuerySpec into a live result against the
// scheduler's world.
func (s *Scheduler) runQuery(spec QuerySpec) []*ecs.Entity {
	b := s.world.Query()
	if len(spec.All) > 0 {
		b = b.WithAll(spec.All...)
	}
	if len(spec.Any) > 0 {
		b = b.WithAny(spec.Any...)
	}
	if len(spec.Exclude) > 0 {
		b = b.WithNone(spec.Exclude...)
	}
	b = b.WithEnabled(spec.Filter)
	return b.Execute()
}

// processAll implements the default ProcessAll semantics: an explicit
// ProcessAller overrides it outright; otherwise an empty result either
// runs Process(nil, delta) once (when the system opts into
// EmptyProcessor) or is skipped; a non-empty result dispatches through
// the parallel batcher once the system opts in and the entity count
// clears its threshold, else runs sequentially in query order.
func (s *Scheduler) processAll(e *entry, entities []*ecs.Entity, delta float64) {
	if pa, ok := e.sys.(ProcessAller); ok {
		pa.ProcessAll(entities, delta)
		return
	}

	if len(entities) == 0 {
		if ep, ok := e.sys.(EmptyProcessor); ok && ep.ProcessEmpty() {
			e.sys.Process(nil, delta)
		}
		return
	}

	if pz, ok := e.sys.(Parallelizer); ok {
		if enabled, threshold := pz.Parallel(); enabled && len(entities) >= threshold {
			runParallel(entities, func(ent *ecs.Entity) { e.sys.Process(ent, delta) })
			return
		}
	}

	for _, ent := range entities {
		e.sys.Process(ent, delta)
	}
}
