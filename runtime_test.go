package ecsruntime

import (
	"sync"
	"testing"

	"github.com/l1jgo/ecsruntime/ecs"
	"github.com/l1jgo/ecsruntime/observer"
	"github.com/l1jgo/ecsruntime/system"
	"github.com/stretchr/testify/require"
)

const tickKey ecs.ComponentKey = "test.tick"

type tickComponent struct{ ecs.Notifier }

func (tickComponent) ComponentKey() ecs.ComponentKey { return tickKey }

// countingSystem counts how many times Process runs, for assertions
// that Purge has actually evicted it from the scheduler.
type countingSystem struct {
	system.Base
	mu    sync.Mutex
	calls int
}

func newCountingSystem(name string) *countingSystem {
	return &countingSystem{Base: system.NewBase(name, "", system.Deps{})}
}

func (s *countingSystem) Query() system.QuerySpec {
	return system.QuerySpec{All: []ecs.ComponentKey{tickKey}}
}

func (s *countingSystem) Process(*ecs.Entity, float64) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingSystem) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestPurgeRemovesEntitiesSystemsAndObservers(t *testing.T) {
	rt := New(nil)

	e := ecs.NewEntity(ecs.Hooks{})
	rt.AddEntity(e, map[ecs.ComponentKey]ecs.Component{tickKey: &tickComponent{}})

	sys := newCountingSystem("tick")
	require.NoError(t, rt.AddSystem(sys, false))

	var observed int
	_, err := rt.AddObserver(tickKey, observer.Matcher{}, func(ecs.WorldEvent) { observed++ }, nil, nil)
	require.NoError(t, err)

	rt.Purge(nil)

	require.False(t, rt.HasEntityWithID(e.ID()))

	require.NoError(t, rt.Process(0.1, ""))
	require.Zero(t, sys.callCount())

	e2 := ecs.NewEntity(ecs.Hooks{})
	rt.AddEntity(e2, map[ecs.ComponentKey]ecs.Component{tickKey: &tickComponent{}})
	rt.World.FlushDeferred()
	require.Zero(t, observed)
}

func TestPurgeKeepsListedEntities(t *testing.T) {
	rt := New(nil)

	keep := ecs.NewEntity(ecs.Hooks{})
	rt.AddEntity(keep, nil)
	drop := ecs.NewEntity(ecs.Hooks{})
	rt.AddEntity(drop, nil)

	rt.Purge([]ecs.EntityID{keep.ID()})

	require.True(t, rt.HasEntityWithID(keep.ID()))
	require.False(t, rt.HasEntityWithID(drop.ID()))
}
