// Package system implements the ordered scheduler, subsystem driver
// and parallel batcher: systems are grouped by a string tag, sorted by
// declared Before/After dependencies, and dispatched once per tick.
package system

import "github.com/l1jgo/ecsruntime/ecs"

// Deps declares a system's ordering constraints within its group.
// After: [T] means T must run before this system; Before: [T] means
// this system must run before T.
type Deps struct {
	Before []string
	After  []string
}

// QuerySpec is the pure, world-independent description of a system's
// query, memoized once by the scheduler and turned into a live
// ecs.QueryBuilder each tick.
type QuerySpec struct {
	All     []ecs.ComponentKey
	Any     []ecs.ComponentKey
	Exclude []ecs.ComponentKey
	Filter  ecs.EnabledFilter
}

// System is the minimum interface the scheduler dispatches.
type System interface {
	Name() string
	Group() string
	Deps() Deps
	Setup(w *ecs.World)
	Query() QuerySpec
	Process(e *ecs.Entity, delta float64)
}

// SubsystemTuple is a (query, callable, all-at-once?) unit composed
// within a system. entities always arrives as a slice; when AllAtOnce
// is false the driver invokes Callable once per entity with a
// single-element slice, preserving one call signature for both
// execution modes.
type SubsystemTuple struct {
	Query     QuerySpec
	Callable  func(entities []*ecs.Entity, delta float64)
	AllAtOnce bool
}

// SubSystemer is implemented by systems that drive multiple queries
// instead of the single Query()/Process() path. Returning an empty
// slice on the first call marks the system as single-query for the
// rest of its lifetime.
type SubSystemer interface {
	SubSystems(w *ecs.World) []SubsystemTuple
}

// ProcessAller lets a system override the default ProcessAll behavior:
// an empty query result calls Process(nil, delta) once when the system
// opts in through EmptyProcessor and is skipped otherwise; a non-empty
// result dispatches in parallel or sequentially depending on
// Parallelizer.
type ProcessAller interface {
	ProcessAll(entities []*ecs.Entity, delta float64)
}

// EmptyProcessor opts a system into running once with a nil entity
// when its query returns nothing.
type EmptyProcessor interface {
	ProcessEmpty() bool
}

// Parallelizer opts a system into the worker-pool batcher once its
// query result crosses threshold.
type Parallelizer interface {
	Parallel() (enabled bool, threshold int)
}

// ActiveGate lets a system report whether it should be skipped
// wholesale this tick, independent of the pause flag.
type ActiveGate interface {
	Active() bool
}

// Pausable lets a system veto a global pause for itself.
type Pausable interface {
	CanProcess() bool
}

// Base is an embeddable helper providing the bookkeeping fields most
// systems need — name, group, deps, active/paused state. Concrete
// systems embed Base and implement Query/Process themselves.
type Base struct {
	name   string
	group  string
	deps   Deps
	active bool
	paused bool
}

// NewBase constructs a Base with active=true and the given identity.
func NewBase(name, group string, deps Deps) Base {
	return Base{name: name, group: group, deps: deps, active: true}
}

func (b *Base) Name() string     { return b.name }
func (b *Base) Group() string    { return b.group }
func (b *Base) Deps() Deps       { return b.deps }
func (b *Base) Active() bool     { return b.active }
func (b *Base) SetActive(v bool) { b.active = v }
func (b *Base) Paused() bool     { return b.paused }
func (b *Base) SetPaused(v bool) { b.paused = v }

// Setup default is a no-op; embedders override when they need one-time
// initialization against the world.
func (b *Base) Setup(_ *ecs.World) {}
