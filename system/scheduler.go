package system

import (
	"slices"
	"sort"

	"github.com/l1jgo/ecsruntime/ecs"
	"github.com/rotisserie/eris"
)

// entry wraps a registered System with the scheduler's own bookkeeping:
// insertion order for stable-sort tie-breaking, the memoized query
// spec, and the "does this system have subsystems" latch — a system
// whose SubSystems() call returns empty on its first tick is marked
// single-query for the rest of its lifetime.
type entry struct {
	sys         System
	insertion   int
	querySpec   QuerySpec
	queryBound  bool
	subsystems  []SubsystemTuple
	singleQuery bool
	subsChecked bool
}

// Scheduler groups systems by tag and dispatches each group's ordered
// systems once per tick.
type Scheduler struct {
	world      *ecs.World
	groups     map[string][]*entry
	nextInsert int
}

// NewScheduler creates a scheduler bound to world. The scheduler never
// mutates world's indices directly — dispatch flows entirely through
// ecs.World's exported Query/Defer surface.
func NewScheduler(world *ecs.World) *Scheduler {
	return &Scheduler{world: world, groups: make(map[string][]*entry)}
}

// AddSystem registers sys into its declared group, calling Setup once.
// When reorder is true the whole group is re-sorted topologically by
// Before/After deps; pass false to append cheaply when you know the
// order is already correct (e.g. bulk registration followed by one
// final sorted AddSystem call).
func (s *Scheduler) AddSystem(sys System, reorder bool) error {
	group := sys.Group()
	e := &entry{sys: sys, insertion: s.nextInsert}
	s.nextInsert++
	sys.Setup(s.world)
	s.groups[group] = append(s.groups[group], e)
	if reorder {
		if err := s.sortGroup(group); err != nil {
			return err
		}
	}
	s.world.Emit(ecs.WorldEvent{Kind: ecs.EventSystemAdded, SystemName: sys.Name()})
	return nil
}

// AddSystems registers each system, sorting once at the end when
// sortAfter is true.
func (s *Scheduler) AddSystems(systems []System, sortAfter bool) error {
	for _, sys := range systems {
		if err := s.AddSystem(sys, false); err != nil {
			return err
		}
	}
	if sortAfter {
		groups := make(map[string]struct{})
		for _, sys := range systems {
			groups[sys.Group()] = struct{}{}
		}
		for g := range groups {
			if err := s.sortGroup(g); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveSystem evicts sys from its group, deleting the group entirely
// once it's empty. system_removed is emitted only when sys was
// actually registered.
func (s *Scheduler) RemoveSystem(sys System) {
	group := sys.Group()
	entries := s.groups[group]
	removed := false
	for i, e := range entries {
		if e.sys == sys {
			s.groups[group] = append(entries[:i], entries[i+1:]...)
			removed = true
			break
		}
	}
	if len(s.groups[group]) == 0 {
		delete(s.groups, group)
	}
	if removed {
		s.world.Emit(ecs.WorldEvent{Kind: ecs.EventSystemRemoved, SystemName: sys.Name()})
	}
}

// RemoveSystemGroup removes every system in group. It snapshots the
// group's system list before iterating so removing entries from the
// live slice mid-loop can't skip or re-visit a system.
func (s *Scheduler) RemoveSystemGroup(group string) {
	entries := slices.Clone(s.groups[group])
	for _, e := range entries {
		s.RemoveSystem(e.sys)
	}
}

// RemoveAll evicts every system in every group, the way Purge tears
// the scheduler down alongside the world's own entity set. Group names
// are snapshotted first since RemoveSystemGroup deletes from s.groups.
func (s *Scheduler) RemoveAll() {
	groups := make([]string, 0, len(s.groups))
	for group := range s.groups {
		groups = append(groups, group)
	}
	for _, group := range groups {
		s.RemoveSystemGroup(group)
	}
}

// UpdatePauseState iterates every registered system and sets its
// paused flag from the global paused request, unless the system
// implements Pausable and its own CanProcess() vetoes the pause for
// itself (e.g. a system that must keep running while the game is
// paused).
func (s *Scheduler) UpdatePauseState(paused bool) {
	for _, entries := range s.groups {
		for _, e := range entries {
			effective := paused
			if p, ok := e.sys.(Pausable); ok && p.CanProcess() {
				effective = false
			}
			if base, ok := e.sys.(interface{ SetPaused(bool) }); ok {
				base.SetPaused(effective)
			}
		}
	}
}

// sortGroup performs a Kahn's-algorithm topological sort of the
// group's systems by name, honoring Before/After edges, breaking ties
// by insertion order. A cycle among the group's deps is rejected.
func (s *Scheduler) sortGroup(group string) error {
	entries := s.groups[group]
	if len(entries) < 2 {
		return nil
	}

	byName := make(map[string]*entry, len(entries))
	for _, e := range entries {
		byName[e.sys.Name()] = e
	}

	indegree := make(map[string]int, len(entries))
	adjacency := make(map[string][]string, len(entries))
	for _, e := range entries {
		deps := e.sys.Deps()
		for _, after := range deps.After {
			if _, ok := byName[after]; !ok {
				continue // dependency outside this group is not orderable here
			}
			adjacency[after] = append(adjacency[after], e.sys.Name())
			indegree[e.sys.Name()]++
		}
		for _, before := range deps.Before {
			if _, ok := byName[before]; !ok {
				continue
			}
			adjacency[e.sys.Name()] = append(adjacency[e.sys.Name()], before)
			indegree[before]++
		}
	}

	var ready []*entry
	for _, e := range entries {
		if indegree[e.sys.Name()] == 0 {
			ready = append(ready, e)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool { return ready[i].insertion < ready[j].insertion })

	var ordered []*entry
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return ready[i].insertion < ready[j].insertion })
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		for _, dependentName := range adjacency[next.sys.Name()] {
			indegree[dependentName]--
			if indegree[dependentName] == 0 {
				ready = append(ready, byName[dependentName])
			}
		}
	}

	if len(ordered) != len(entries) {
		return eris.Wrapf(ecs.ErrCyclicDependency, "group %q", group)
	}

	s.groups[group] = ordered
	return nil
}
