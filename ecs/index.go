package ecs

// componentIndex maintains three parallel maps: union (every entity
// carrying a component), enabled (subset with enabled=true) and
// disabled (subset with enabled=false). Empty sets are always evicted
// so a missing key means "no entities".
type componentIndex struct {
	union    map[ComponentKey]map[EntityID]*Entity
	enabled  map[ComponentKey]map[EntityID]*Entity
	disabled map[ComponentKey]map[EntityID]*Entity
}

func newComponentIndex() *componentIndex {
	return &componentIndex{
		union:    make(map[ComponentKey]map[EntityID]*Entity),
		enabled:  make(map[ComponentKey]map[EntityID]*Entity),
		disabled: make(map[ComponentKey]map[EntityID]*Entity),
	}
}

func addTo(m map[ComponentKey]map[EntityID]*Entity, key ComponentKey, e *Entity) {
	set, ok := m[key]
	if !ok {
		set = make(map[EntityID]*Entity)
		m[key] = set
	}
	set[e.id] = e
}

func removeFrom(m map[ComponentKey]map[EntityID]*Entity, key ComponentKey, id EntityID) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m, key)
	}
}

// addEntity inserts e into the union index and into the enabled or
// disabled index for key, matching e.Enabled().
func (idx *componentIndex) addEntity(e *Entity, key ComponentKey) {
	addTo(idx.union, key, e)
	if e.Enabled() {
		addTo(idx.enabled, key, e)
	} else {
		addTo(idx.disabled, key, e)
	}
}

// removeEntity drops e from every map for key. Missing entries are a
// no-op.
func (idx *componentIndex) removeEntity(e *Entity, key ComponentKey) {
	removeFrom(idx.union, key, e.id)
	removeFrom(idx.enabled, key, e.id)
	removeFrom(idx.disabled, key, e.id)
}

// moveToEnabled relocates e, for every component key it carries, from
// the disabled index into the enabled index. The union index is
// untouched — disable/enable never remove an entity from the union.
func (idx *componentIndex) moveToEnabled(e *Entity) {
	for key := range e.Components() {
		removeFrom(idx.disabled, key, e.id)
		addTo(idx.enabled, key, e)
	}
}

// moveToDisabled is moveToEnabled's inverse.
func (idx *componentIndex) moveToDisabled(e *Entity) {
	for key := range e.Components() {
		removeFrom(idx.enabled, key, e.id)
		addTo(idx.disabled, key, e)
	}
}

func (idx *componentIndex) has(m map[ComponentKey]map[EntityID]*Entity, key ComponentKey) bool {
	set, ok := m[key]
	return ok && len(set) > 0
}
