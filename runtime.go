// Package ecsruntime composes the entity store, scheduler and observer
// dispatcher behind the single host-facing surface a game loop drives
// each tick.
package ecsruntime

import (
	"github.com/l1jgo/ecsruntime/config"
	"github.com/l1jgo/ecsruntime/ecs"
	"github.com/l1jgo/ecsruntime/observer"
	"github.com/l1jgo/ecsruntime/system"
)

// Runtime wires World, Scheduler and Dispatcher together, the way a
// host embeds this module without touching its three constituent
// packages directly.
type Runtime struct {
	World     *ecs.World
	Scheduler *system.Scheduler
	Observers *observer.Dispatcher
}

// New builds a Runtime from cfg. A nil cfg uses the library defaults.
func New(cfg *config.Config) *Runtime {
	w := ecs.NewWorld()
	if cfg != nil && cfg.World.PoolSizeLimit > 0 {
		w.SetPoolSizeLimit(cfg.World.PoolSizeLimit)
	}
	return &Runtime{
		World:     w,
		Scheduler: system.NewScheduler(w),
		Observers: observer.NewDispatcher(w),
	}
}

// Process runs one tick for group (the empty string names the default
// group), flushing any events deferred since the previous tick.
func (r *Runtime) Process(delta float64, group string) error {
	return r.Scheduler.Process(delta, group)
}

// AddEntity registers e, assigning an id if needed.
func (r *Runtime) AddEntity(e *ecs.Entity, initialComponents map[ecs.ComponentKey]ecs.Component) ecs.EntityID {
	return r.World.AddEntity(e, initialComponents)
}

// RemoveEntity tears e down and removes it from every index.
func (r *Runtime) RemoveEntity(e *ecs.Entity) { r.World.RemoveEntity(e) }

// DisableEntity moves e out of the enabled index without removing it.
func (r *Runtime) DisableEntity(e *ecs.Entity) { r.World.DisableEntity(e) }

// EnableEntity is DisableEntity's inverse.
func (r *Runtime) EnableEntity(e *ecs.Entity, addComponents []ecs.Component) {
	r.World.EnableEntity(e, addComponents)
}

// AddSystem registers sys into the scheduler, re-sorting its group's
// dispatch order when reorder is true.
func (r *Runtime) AddSystem(sys system.System, reorder bool) error {
	return r.Scheduler.AddSystem(sys, reorder)
}

// RemoveSystem evicts sys from the scheduler.
func (r *Runtime) RemoveSystem(sys system.System) { r.Scheduler.RemoveSystem(sys) }

// RemoveSystemGroup evicts every system registered under group.
func (r *Runtime) RemoveSystemGroup(group string) { r.Scheduler.RemoveSystemGroup(group) }

// AddObserver registers handlers against a watched component key.
func (r *Runtime) AddObserver(watch ecs.ComponentKey, match observer.Matcher, onAdded, onRemoved, onChanged observer.Handler) (int, error) {
	return r.Observers.Watch(watch, match, onAdded, onRemoved, onChanged)
}

// RemoveObserver unregisters the observer returned by AddObserver.
func (r *Runtime) RemoveObserver(id int) { r.Observers.Unwatch(id) }

// GetEntityByID looks an entity up by id.
func (r *Runtime) GetEntityByID(id ecs.EntityID) (*ecs.Entity, bool) {
	return r.World.GetEntityByID(id)
}

// HasEntityWithID reports whether id currently names a live entity.
func (r *Runtime) HasEntityWithID(id ecs.EntityID) bool { return r.World.HasEntityWithID(id) }

// Purge removes every entity not named in keep, then tears down every
// registered system and observer, per the host contract's full reset.
func (r *Runtime) Purge(keep []ecs.EntityID) {
	r.World.Purge(keep)
	r.Scheduler.RemoveAll()
	r.Observers.RemoveAll()
}

// Query returns a fresh query builder against the world.
func (r *Runtime) Query() *ecs.QueryBuilder { return r.World.Query() }

// CacheStats returns the query cache's hit/miss snapshot.
func (r *Runtime) CacheStats() ecs.CacheStats { return r.World.GetCacheStats() }

// ResetCacheStats zeroes the hit/miss counters.
func (r *Runtime) ResetCacheStats() { r.World.ResetCacheStats() }
