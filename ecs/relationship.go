package ecs

// Target is either a live Entity or a bare type tag (a relation that
// points at "any instance of a kind" rather than one specific entity).
// Only an Entity target is reverse-indexed.
type Target struct {
	Entity *Entity
	Tag    ComponentKey
}

// EntityTarget builds a Target pointing at a specific entity.
func EntityTarget(e *Entity) Target { return Target{Entity: e} }

// TagTarget builds a Target pointing at a type tag, not a specific
// entity.
func TagTarget(tag ComponentKey) Target { return Target{Tag: tag} }

func (t Target) isEntity() bool { return t.Entity != nil }

// valid defensively checks a stale target — required before an entity
// target is reverse-indexed.
func (t Target) valid(w *World) bool {
	if !t.isEntity() {
		return true
	}
	return w.HasEntityWithID(t.Entity.id) && w.idRegistry[t.Entity.id] == t.Entity
}

// Relationship is a (source, relation, target) triple. Source and
// target are non-owning references; relation is the component-type-key
// identifying the relation kind.
type Relationship struct {
	Source   *Entity
	Relation ComponentKey
	Target   Target
}

// relationshipIndex holds the forward (relation → sources) and reverse
// (relation → targets) maps. The reverse map only ever gains entries
// for entity targets that pass validity.
type relationshipIndex struct {
	forward map[ComponentKey][]*Entity
	reverse map[ComponentKey][]*Entity
}

func newRelationshipIndex() *relationshipIndex {
	return &relationshipIndex{
		forward: make(map[ComponentKey][]*Entity),
		reverse: make(map[ComponentKey][]*Entity),
	}
}

// add records r's forward entry unconditionally and its reverse entry
// only if the target is a live entity — a stale target is skipped
// silently.
func (idx *relationshipIndex) add(r Relationship, w *World) {
	idx.forward[r.Relation] = append(idx.forward[r.Relation], r.Source)
	if r.Target.isEntity() && r.Target.valid(w) {
		idx.reverse[r.Relation] = append(idx.reverse[r.Relation], r.Target.Entity)
	}
}

// remove is idempotent: removing a relationship that was never fully
// indexed (e.g. its reverse entry was skipped for a stale target)
// still succeeds for whichever side was actually recorded.
func (idx *relationshipIndex) remove(r Relationship) {
	idx.forward[r.Relation] = removeOne(idx.forward[r.Relation], r.Source)
	if len(idx.forward[r.Relation]) == 0 {
		delete(idx.forward, r.Relation)
	}
	if r.Target.isEntity() {
		idx.reverse[r.Relation] = removeOne(idx.reverse[r.Relation], r.Target.Entity)
		if len(idx.reverse[r.Relation]) == 0 {
			delete(idx.reverse, r.Relation)
		}
	}
}

func (idx *relationshipIndex) removeEntity(e *Entity) {
	for _, r := range e.relationships {
		idx.remove(r)
	}
	for relation, sources := range idx.forward {
		idx.forward[relation] = removeOne(sources, e)
		if len(idx.forward[relation]) == 0 {
			delete(idx.forward, relation)
		}
	}
	for relation, targets := range idx.reverse {
		idx.reverse[relation] = removeOne(targets, e)
		if len(idx.reverse[relation]) == 0 {
			delete(idx.reverse, relation)
		}
	}
}

// Forward returns the sources indexed under relation.
func (idx *relationshipIndex) Forward(relation ComponentKey) []*Entity {
	return idx.forward[relation]
}

// Reverse returns the targets indexed under relation.
func (idx *relationshipIndex) Reverse(relation ComponentKey) []*Entity {
	return idx.reverse[relation]
}

func (idx *relationshipIndex) clear() {
	idx.forward = make(map[ComponentKey][]*Entity)
	idx.reverse = make(map[ComponentKey][]*Entity)
}

func removeOne(list []*Entity, target *Entity) []*Entity {
	for i, e := range list {
		if e == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
