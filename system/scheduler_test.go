package system

import (
	"sync"
	"testing"

	"github.com/l1jgo/ecsruntime/ecs"
	"github.com/stretchr/testify/require"
)

// recordingSystem appends its own name to a shared, mutex-guarded log
// each time Process runs, so ordering assertions can inspect it.
type recordingSystem struct {
	Base
	log *[]string
	mu  *sync.Mutex
}

func newRecordingSystem(name, group string, deps Deps, log *[]string, mu *sync.Mutex) *recordingSystem {
	return &recordingSystem{Base: NewBase(name, group, deps), log: log, mu: mu}
}

func (s *recordingSystem) Query() QuerySpec { return QuerySpec{} }

// ProcessEmpty opts in so Process still runs once per tick in these
// tests' entity-free worlds.
func (s *recordingSystem) ProcessEmpty() bool { return true }

func (s *recordingSystem) Process(_ *ecs.Entity, _ float64) {
	s.mu.Lock()
	*s.log = append(*s.log, s.Name())
	s.mu.Unlock()
}

func TestSchedulerSortsByDeclaredDependencies(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	a := newRecordingSystem("a", "g", Deps{}, &log, &mu)
	b := newRecordingSystem("b", "g", Deps{After: []string{"a"}}, &log, &mu)
	c := newRecordingSystem("c", "g", Deps{After: []string{"b"}}, &log, &mu)

	// register out of order; the topological sort must still produce a, b, c
	require.NoError(t, sched.AddSystem(c, true))
	require.NoError(t, sched.AddSystem(a, true))
	require.NoError(t, sched.AddSystem(b, true))

	require.NoError(t, sched.Process(0.1, "g"))
	require.Equal(t, []string{"a", "b", "c"}, log)
}

func TestSchedulerTiesBreakByInsertionOrder(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	first := newRecordingSystem("first", "g", Deps{}, &log, &mu)
	second := newRecordingSystem("second", "g", Deps{}, &log, &mu)

	require.NoError(t, sched.AddSystem(first, true))
	require.NoError(t, sched.AddSystem(second, true))

	require.NoError(t, sched.Process(0.1, "g"))
	require.Equal(t, []string{"first", "second"}, log)
}

func TestSchedulerRejectsCyclicDependency(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	a := newRecordingSystem("a", "g", Deps{After: []string{"b"}}, &log, &mu)
	b := newRecordingSystem("b", "g", Deps{After: []string{"a"}}, &log, &mu)

	require.NoError(t, sched.AddSystem(a, false))
	err := sched.AddSystem(b, true)
	require.Error(t, err)
	require.ErrorIs(t, err, ecs.ErrCyclicDependency)
}

func TestRemoveSystemGroupEvictsEveryMember(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	a := newRecordingSystem("a", "g", Deps{}, &log, &mu)
	b := newRecordingSystem("b", "g", Deps{}, &log, &mu)
	require.NoError(t, sched.AddSystem(a, false))
	require.NoError(t, sched.AddSystem(b, false))

	sched.RemoveSystemGroup("g")

	require.NoError(t, sched.Process(0.1, "g"))
	require.Empty(t, log)
	_, exists := sched.groups["g"]
	require.False(t, exists)
}

func TestAddSystemEmitsSystemAdded(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	var names []string
	w.On(ecs.EventSystemAdded, func(ev ecs.WorldEvent) { names = append(names, ev.SystemName) })

	sys := newRecordingSystem("a", "g", Deps{}, &log, &mu)
	require.NoError(t, sched.AddSystem(sys, false))

	require.Equal(t, []string{"a"}, names)
}

func TestRemoveSystemEmitsSystemRemoved(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	var names []string
	w.On(ecs.EventSystemRemoved, func(ev ecs.WorldEvent) { names = append(names, ev.SystemName) })

	sys := newRecordingSystem("a", "g", Deps{}, &log, &mu)
	require.NoError(t, sched.AddSystem(sys, false))
	sched.RemoveSystem(sys)

	require.Equal(t, []string{"a"}, names)
}

func TestRemoveAllEvictsEveryGroup(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	a := newRecordingSystem("a", "g1", Deps{}, &log, &mu)
	b := newRecordingSystem("b", "g2", Deps{}, &log, &mu)
	require.NoError(t, sched.AddSystem(a, false))
	require.NoError(t, sched.AddSystem(b, false))

	sched.RemoveAll()

	require.Empty(t, sched.groups)
	require.NoError(t, sched.Process(0.1, "g1"))
	require.NoError(t, sched.Process(0.1, "g2"))
	require.Empty(t, log)
}

type vetoingSystem struct {
	recordingSystem
	canProcess bool
}

func (s *vetoingSystem) CanProcess() bool { return s.canProcess }

func TestUpdatePauseStateHonorsPausableVeto(t *testing.T) {
	w := ecs.NewWorld()
	sched := NewScheduler(w)
	var log []string
	var mu sync.Mutex

	normal := newRecordingSystem("normal", "g", Deps{}, &log, &mu)
	veto := &vetoingSystem{recordingSystem: *newRecordingSystem("veto", "g", Deps{}, &log, &mu), canProcess: true}

	require.NoError(t, sched.AddSystem(normal, false))
	require.NoError(t, sched.AddSystem(veto, false))

	sched.UpdatePauseState(true)
	require.NoError(t, sched.Process(0.1, "g"))

	require.Equal(t, []string{"veto"}, log)
}
