package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const keyFoo ComponentKey = "test.foo"
const keyBar ComponentKey = "test.bar"

type fooComponent struct {
	Notifier
	Value Prop[int]
}

func newFooComponent(v int) *fooComponent {
	f := &fooComponent{}
	f.Value = NewProp(&f.Notifier, "value", v)
	return f
}

func (f *fooComponent) ComponentKey() ComponentKey { return keyFoo }

type barComponent struct{}

func (barComponent) ComponentKey() ComponentKey { return keyBar }

func TestEntityAddRemoveComponent(t *testing.T) {
	e := NewEntity(Hooks{})
	require.False(t, e.HasComponent(keyFoo))

	e.AddComponent(newFooComponent(1))
	require.True(t, e.HasComponent(keyFoo))

	c, ok := e.Component(keyFoo)
	require.True(t, ok)
	require.Equal(t, 1, c.(*fooComponent).Value.Get())

	e.RemoveComponent(keyFoo)
	require.False(t, e.HasComponent(keyFoo))

	// removing a missing key is a no-op, not a panic
	e.RemoveComponent(keyFoo)
}

func TestPropSetEmitsComponentChanged(t *testing.T) {
	w := NewWorld()
	e := NewEntity(Hooks{})
	foo := newFooComponent(1)

	var gotProperty string
	var gotOld, gotNew any
	w.On(EventComponentChanged, func(ev WorldEvent) {
		gotProperty, gotOld, gotNew = ev.Property, ev.Old, ev.New
	})

	w.AddEntity(e, map[ComponentKey]Component{keyFoo: foo})
	foo.Value.Set(2)

	require.Equal(t, "value", gotProperty)
	require.Equal(t, 1, gotOld)
	require.Equal(t, 2, gotNew)
}

func TestEntityEnableDisableRoundTrip(t *testing.T) {
	w := NewWorld()
	e := NewEntity(Hooks{})
	w.AddEntity(e, map[ComponentKey]Component{keyFoo: newFooComponent(1)})

	require.True(t, e.Enabled())
	w.DisableEntity(e)
	require.False(t, e.Enabled())

	result := w.Query().WithAll(keyFoo).WithEnabled(FilterEnabledOnly).Execute()
	require.Empty(t, result)

	w.EnableEntity(e, nil)
	require.True(t, e.Enabled())

	result = w.Query().WithAll(keyFoo).WithEnabled(FilterEnabledOnly).Execute()
	require.Equal(t, []*Entity{e}, result)
}

func TestRelationshipForwardAndReverse(t *testing.T) {
	w := NewWorld()
	source := NewEntity(Hooks{})
	target := NewEntity(Hooks{})
	w.AddEntity(source, nil)
	w.AddEntity(target, nil)

	rel := Relationship{Source: source, Relation: "owns", Target: EntityTarget(target)}
	w.AddRelationship(rel)

	require.Equal(t, []*Entity{source}, w.RelationshipForward("owns"))
	require.Equal(t, []*Entity{target}, w.RelationshipReverse("owns"))

	w.RemoveRelationship(rel)
	require.Empty(t, w.RelationshipForward("owns"))
	require.Empty(t, w.RelationshipReverse("owns"))
}

func TestRelationshipStaleTargetSkipsReverseIndex(t *testing.T) {
	w := NewWorld()
	source := NewEntity(Hooks{})
	target := NewEntity(Hooks{})
	w.AddEntity(source, nil)
	w.AddEntity(target, nil)
	w.RemoveEntity(target)

	rel := Relationship{Source: source, Relation: "owns", Target: EntityTarget(target)}
	w.AddRelationship(rel)

	require.Equal(t, []*Entity{source}, w.RelationshipForward("owns"))
	require.Empty(t, w.RelationshipReverse("owns"))

	// idempotent even though the reverse side was never recorded
	w.RemoveRelationship(rel)
	require.Empty(t, w.RelationshipForward("owns"))
}
