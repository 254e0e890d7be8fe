// Package observer routes component_added/removed/changed notifications
// to registered handlers, deferring delivery to the next tick so a
// handler can safely mutate the world without reentering the mutation
// that triggered it.
package observer

import "github.com/l1jgo/ecsruntime/ecs"

// Handler receives the raw world event once it clears matching.
type Handler func(ev ecs.WorldEvent)

// Matcher narrows which entities an observer cares about, evaluated
// directly against the entity's own component set rather than through
// a world query — the entity and its change are already in hand, so
// there's no index to consult.
type Matcher struct {
	All     []ecs.ComponentKey
	Any     []ecs.ComponentKey
	Exclude []ecs.ComponentKey
	Filter  ecs.EnabledFilter
}

func (m Matcher) matches(e *ecs.Entity) bool {
	if e == nil {
		return false
	}
	switch m.Filter {
	case ecs.FilterEnabledOnly:
		if !e.Enabled() {
			return false
		}
	case ecs.FilterDisabledOnly:
		if e.Enabled() {
			return false
		}
	}
	for _, k := range m.All {
		if !e.HasComponent(k) {
			return false
		}
	}
	if len(m.Any) > 0 {
		found := false
		for _, k := range m.Any {
			if e.HasComponent(k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, k := range m.Exclude {
		if e.HasComponent(k) {
			return false
		}
	}
	return true
}

type observer struct {
	id        int
	watch     ecs.ComponentKey
	match     Matcher
	onAdded   Handler
	onRemoved Handler
	onChanged Handler
}

// Dispatcher owns the observer registry for a single world and wires
// itself into that world's event bus at construction time.
type Dispatcher struct {
	world     *ecs.World
	nextID    int
	observers map[ecs.ComponentKey][]*observer
}

// NewDispatcher builds a dispatcher bound to world and subscribes to
// its component lifecycle events immediately.
func NewDispatcher(world *ecs.World) *Dispatcher {
	d := &Dispatcher{world: world, observers: make(map[ecs.ComponentKey][]*observer)}
	world.On(ecs.EventComponentAdded, d.handleAdded)
	world.On(ecs.EventComponentRemoved, d.handleRemoved)
	world.On(ecs.EventComponentChanged, d.handleChanged)
	return d
}

// Watch registers fn to run whenever a component under watch changes
// state, filtered by match. Matching applies to added/changed; a
// removal notifies unconditionally, since by the time it fires the
// entity may no longer carry the components the match would need to
// check. Returns a handle for Unwatch.
func (d *Dispatcher) Watch(watch ecs.ComponentKey, match Matcher, onAdded, onRemoved, onChanged Handler) (int, error) {
	if watch == "" {
		return 0, ecs.ErrObserverNoWatch
	}
	d.nextID++
	ob := &observer{
		id: d.nextID, watch: watch, match: match,
		onAdded: onAdded, onRemoved: onRemoved, onChanged: onChanged,
	}
	d.observers[watch] = append(d.observers[watch], ob)
	return ob.id, nil
}

// Unwatch removes the observer registered under id, if any.
func (d *Dispatcher) Unwatch(id int) {
	for key, list := range d.observers {
		for i, ob := range list {
			if ob.id == id {
				d.observers[key] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// RemoveAll drops every registered observer, the way Purge tears the
// dispatcher down alongside the world's own entity set. The
// dispatcher stays subscribed to the world's component events — it
// simply has no observers left to notify until Watch is called again.
func (d *Dispatcher) RemoveAll() {
	d.observers = make(map[ecs.ComponentKey][]*observer)
}

func (d *Dispatcher) handleAdded(ev ecs.WorldEvent) {
	for _, ob := range d.observers[ev.Component.ComponentKey()] {
		if ob.onAdded == nil || !ob.match.matches(ev.Entity) {
			continue
		}
		handler, event := ob.onAdded, ev
		d.world.Defer(func() { handler(event) })
	}
}

func (d *Dispatcher) handleRemoved(ev ecs.WorldEvent) {
	for _, ob := range d.observers[ev.Component.ComponentKey()] {
		if ob.onRemoved == nil {
			continue
		}
		handler, event := ob.onRemoved, ev
		d.world.Defer(func() { handler(event) })
	}
}

func (d *Dispatcher) handleChanged(ev ecs.WorldEvent) {
	for _, ob := range d.observers[ev.Component.ComponentKey()] {
		if ob.onChanged == nil || !ob.match.matches(ev.Entity) {
			continue
		}
		handler, event := ob.onChanged, ev
		d.world.Defer(func() { handler(event) })
	}
}
