package ecs

import "github.com/google/uuid"

// Preprocessor and Postprocessor run around entity registration and
// removal, one call per registered hook in registration order.
type Preprocessor func(*World, *Entity)
type Postprocessor func(*World, *Entity)

// builderPoolLimit is the default query-builder free-list bound.
const builderPoolLimit = 10

// World is the top-level ECS container: entity store, three-map
// component index, relationship index, cached query planner and the
// event bus that fans events out to the scheduler/observer layers.
// It does not lock — the world stays single-threaded on the control
// thread and relies on the parallel-batcher contract instead of
// runtime enforcement.
type World struct {
	entities   []*Entity
	idRegistry map[EntityID]*Entity

	index         *componentIndex
	relationships *relationshipIndex
	cache         *queryCache
	componentIDs  *componentRegistry
	events        *eventBus

	preprocessors  []Preprocessor
	postprocessors []Postprocessor

	builderPool   []*QueryBuilder
	poolSizeLimit int

	deferred []func()
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		idRegistry:    make(map[EntityID]*Entity),
		index:         newComponentIndex(),
		relationships: newRelationshipIndex(),
		cache:         newQueryCache(),
		componentIDs:  newComponentRegistry(),
		events:        newEventBus(),
		poolSizeLimit: builderPoolLimit,
	}
}

// SetPoolSizeLimit overrides the query-builder free-list bound (the
// `_pool_size_limit` config knob, default 10).
func (w *World) SetPoolSizeLimit(n int) { w.poolSizeLimit = n }

// AddPreprocessor / AddPostprocessor register hooks run around
// AddEntity / RemoveEntity respectively.
func (w *World) AddPreprocessor(p Preprocessor)   { w.preprocessors = append(w.preprocessors, p) }
func (w *World) AddPostprocessor(p Postprocessor) { w.postprocessors = append(w.postprocessors, p) }

// Entities returns the live entity list. Read-only.
func (w *World) Entities() []*Entity { return w.entities }

// GetEntityByID looks the entity up by id.
func (w *World) GetEntityByID(id EntityID) (*Entity, bool) {
	e, ok := w.idRegistry[id]
	return e, ok
}

// HasEntityWithID reports whether id currently names a live entity.
func (w *World) HasEntityWithID(id EntityID) bool {
	_, ok := w.idRegistry[id]
	return ok
}

// AddEntity registers e, assigning a fresh UUID if e's id is empty and
// replacing any prior instance registered under the same id.
// initialComponents, if non-nil, is attached to the entity after it is
// indexed (each component firing component_added) and then passed to
// the entity's Initialize hook.
func (w *World) AddEntity(e *Entity, initialComponents map[ComponentKey]Component) EntityID {
	if e.id == "" {
		e.id = EntityID(uuid.NewString())
	}
	if prior, exists := w.idRegistry[e.id]; exists && prior != e {
		w.RemoveEntity(prior)
	}

	e.connect(&subscription{
		onComponentAdded: func(ent *Entity, c Component) {
			w.index.addEntity(ent, c.ComponentKey())
			w.cache.invalidate()
			w.events.emit(WorldEvent{Kind: EventCacheInvalidated})
			w.events.emit(WorldEvent{Kind: EventComponentAdded, Entity: ent, Component: c})
		},
		onComponentRemoved: func(ent *Entity, c Component) {
			w.index.removeEntity(ent, c.ComponentKey())
			w.cache.invalidate()
			w.events.emit(WorldEvent{Kind: EventCacheInvalidated})
			w.events.emit(WorldEvent{Kind: EventComponentRemoved, Entity: ent, Component: c})
		},
		onComponentChanged: func(ent *Entity, c Component, property string, oldV, newV any) {
			w.events.emit(WorldEvent{
				Kind: EventComponentChanged, Entity: ent, Component: c,
				Property: property, Old: oldV, New: newV,
			})
		},
		onRelationshipAdded: func(ent *Entity, r Relationship) {
			w.relationships.add(r, w)
			w.cache.invalidate()
			w.events.emit(WorldEvent{Kind: EventCacheInvalidated})
			w.events.emit(WorldEvent{Kind: EventRelationshipAdded, Entity: ent, Relationship: r})
		},
		onRelationshipRemoved: func(ent *Entity, r Relationship) {
			w.relationships.remove(r)
			w.cache.invalidate()
			w.events.emit(WorldEvent{Kind: EventCacheInvalidated})
			w.events.emit(WorldEvent{Kind: EventRelationshipDeleted, Entity: ent, Relationship: r})
		},
		onEnabledChanged: func(ent *Entity, enabled bool) {
			if enabled {
				w.index.moveToEnabled(ent)
			} else {
				w.index.moveToDisabled(ent)
			}
			w.cache.invalidate()
			w.events.emit(WorldEvent{Kind: EventCacheInvalidated})
		},
	})

	for key := range e.Components() {
		w.index.addEntity(e, key)
	}
	w.idRegistry[e.id] = e
	w.entities = append(w.entities, e)
	w.cache.invalidate()
	w.events.emit(WorldEvent{Kind: EventCacheInvalidated})

	e.initialize(initialComponents)
	w.events.emit(WorldEvent{Kind: EventEntityAdded, Entity: e})

	for _, p := range w.preprocessors {
		p(w, e)
	}
	return e.id
}

// AddEntities registers each entity in order.
func (w *World) AddEntities(entities []*Entity) {
	for _, e := range entities {
		w.AddEntity(e, nil)
	}
}

// RemoveEntity tears e down in a fixed order: postprocessors,
// entity_removed, erase from the list, drop from every index,
// disconnect subscriptions, deregister the id (only if it still maps
// to this instance), on_destroy, then invalidate the cache.
func (w *World) RemoveEntity(e *Entity) {
	for _, p := range w.postprocessors {
		p(w, e)
	}
	w.events.emit(WorldEvent{Kind: EventEntityRemoved, Entity: e})

	for i, other := range w.entities {
		if other == e {
			w.entities = append(w.entities[:i], w.entities[i+1:]...)
			break
		}
	}

	for key := range e.Components() {
		w.index.removeEntity(e, key)
	}
	w.relationships.removeEntity(e)

	e.disconnect()

	if cur, ok := w.idRegistry[e.id]; ok && cur == e {
		delete(w.idRegistry, e.id)
	}

	e.onDestroy()
	w.cache.invalidate()
	w.events.emit(WorldEvent{Kind: EventCacheInvalidated})
}

// RemoveEntities removes each entity in order.
func (w *World) RemoveEntities(entities []*Entity) {
	for _, e := range entities {
		w.RemoveEntity(e)
	}
}

// DisableEntity moves e from the enabled to the disabled index for
// every component it carries, without removing it from the union
// index, and disconnects its event subscriptions.
func (w *World) DisableEntity(e *Entity) {
	if !e.Enabled() {
		return
	}
	e.setEnabled(false)
	e.disconnect()
	e.onDisable()
	w.events.emit(WorldEvent{Kind: EventEntityDisabled, Entity: e})
}

// DisableEntities disables each entity in order.
func (w *World) DisableEntities(entities []*Entity) {
	for _, e := range entities {
		w.DisableEntity(e)
	}
}

// EnableEntity is DisableEntity's inverse. addComponents, if non-nil,
// is attached to e as part of the same call.
func (w *World) EnableEntity(e *Entity, addComponents []Component) {
	if e.Enabled() {
		return
	}
	if e.sub != nil {
		e.connect(e.sub)
	}
	e.setEnabled(true)
	for _, c := range addComponents {
		e.AddComponent(c)
	}
	e.onEnable()
	w.events.emit(WorldEvent{Kind: EventEntityEnabled, Entity: e})
}

// EnableEntities enables each entity in order.
func (w *World) EnableEntities(entities []*Entity) {
	for _, e := range entities {
		w.EnableEntity(e, nil)
	}
}

// Purge removes every entity not named in keep, clears the
// relationship indices, and invalidates the cache. Systems and
// observers live in the scheduler/dispatcher, not the world — a full
// purge(keep) calls World.Purge alongside Scheduler.RemoveAll and
// Dispatcher.RemoveAll, which Runtime.Purge does for callers that hold
// all three.
func (w *World) Purge(keep []EntityID) {
	keepSet := make(map[EntityID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var toRemove []*Entity
	for _, e := range w.entities {
		if _, ok := keepSet[e.id]; !ok {
			toRemove = append(toRemove, e)
		}
	}
	w.RemoveEntities(toRemove)
	w.relationships.clear()
	w.cache.invalidate()
}

// Query returns a pooled QueryBuilder ready for with_all/with_any/
// with_none composition. Execute() returns it to the pool.
func (w *World) Query() *QueryBuilder {
	if n := len(w.builderPool); n > 0 {
		b := w.builderPool[n-1]
		w.builderPool = w.builderPool[:n-1]
		return b
	}
	return &QueryBuilder{world: w}
}

func (w *World) releaseBuilder(b *QueryBuilder) {
	if len(w.builderPool) >= w.poolSizeLimit {
		return
	}
	b.reset()
	w.builderPool = append(w.builderPool, b)
}

// GetCacheStats returns the introspection snapshot defines.
func (w *World) GetCacheStats() CacheStats { return w.cache.stats() }

// ResetCacheStats zeroes the hit/miss counters without touching the
// cached results themselves.
func (w *World) ResetCacheStats() { w.cache.resetStats() }

// CacheSize returns the number of currently cached query results.
func (w *World) CacheSize() int { return len(w.cache.results) }

// Defer queues fn to run at the next FlushDeferred call — the
// mechanism the observer dispatcher uses to push handler invocation
// past the current mutating call.
func (w *World) Defer(fn func()) { w.deferred = append(w.deferred, fn) }

// FlushDeferred runs and clears every call queued since the last
// flush. The scheduler calls this once at the start of each tick.
func (w *World) FlushDeferred() {
	pending := w.deferred
	w.deferred = nil
	for _, fn := range pending {
		fn()
	}
}

// AddRelationship is a convenience that records the relationship on
// its source entity, which fans out to the world's index through the
// same subscription path AddComponent uses.
func (w *World) AddRelationship(r Relationship) {
	r.Source.AddRelationship(r)
}

// RemoveRelationship is AddRelationship's inverse.
func (w *World) RemoveRelationship(r Relationship) {
	r.Source.RemoveRelationship(r)
}

// RelationshipForward returns the sources indexed under relation.
func (w *World) RelationshipForward(relation ComponentKey) []*Entity {
	return w.relationships.Forward(relation)
}

// RelationshipReverse returns the targets indexed under relation.
func (w *World) RelationshipReverse(relation ComponentKey) []*Entity {
	return w.relationships.Reverse(relation)
}
