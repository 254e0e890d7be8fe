package ecs

// componentRegistry hands out a stable small numeric identity per
// ComponentKey, used only for cache-key hashing. Ids start at 2 so a
// lone component in a role never multiplies out to the role's own
// identity element.
type componentRegistry struct {
	ids  map[ComponentKey]uint64
	next uint64
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{ids: make(map[ComponentKey]uint64), next: 2}
}

func (r *componentRegistry) id(key ComponentKey) uint64 {
	if id, ok := r.ids[key]; ok {
		return id
	}
	id := r.next
	r.next++
	r.ids[key] = id
	return id
}

// Cache-key role primes. Distinct primes keep the all/any/exclude
// roles disjoint in the hash domain while multiplication within a role
// stays commutative (duplicate or reordered components in a role
// produce the same key).
const (
	primeAll     = 3
	primeAny     = 5
	primeExclude = 7
)

func roleProduct(reg *componentRegistry, keys []ComponentKey) uint64 {
	seen := make(map[ComponentKey]struct{}, len(keys))
	product := uint64(1)
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		product *= reg.id(k)
	}
	return product
}

func cacheKey(reg *componentRegistry, all, any, exclude []ComponentKey) uint64 {
	return (primeAll * roleProduct(reg, all)) ^
		(primeAny * roleProduct(reg, any)) ^
		(primeExclude * roleProduct(reg, exclude))
}

// queryCache stores materialized query results keyed by the composite
// hash above, plus hit/miss counters for introspection.
type queryCache struct {
	results map[uint64][]*Entity
	hits    int
	misses  int
}

func newQueryCache() *queryCache {
	return &queryCache{results: make(map[uint64][]*Entity)}
}

func (c *queryCache) get(key uint64) ([]*Entity, bool) {
	v, ok := c.results[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *queryCache) put(key uint64, result []*Entity) {
	c.results[key] = result
	c.misses++
}

// invalidate flushes the whole cache. Finer per-component invalidation
// is possible but unnecessary given how cheap a full flush is here.
func (c *queryCache) invalidate() {
	c.results = make(map[uint64][]*Entity)
}

func (c *queryCache) stats() CacheStats {
	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		HitRate:       rate,
		CachedQueries: len(c.results),
	}
}

func (c *queryCache) resetStats() {
	c.hits = 0
	c.misses = 0
}

// CacheStats is the introspection snapshot get_cache_stats returns.
type CacheStats struct {
	Hits          int
	Misses        int
	HitRate       float64
	CachedQueries int
}

// EnabledFilter selects which component index a query consults.
type EnabledFilter int

const (
	// FilterAny consults the union index (default).
	FilterAny EnabledFilter = iota
	FilterEnabledOnly
	FilterDisabledOnly
)

// QueryBuilder is the fluent object World.Query returns: WithAll,
// WithAny, WithNone, then a terminal Execute. It owns its own three
// component lists and is pooled by the world, reset on return.
type QueryBuilder struct {
	world   *World
	all     []ComponentKey
	any     []ComponentKey
	exclude []ComponentKey
	filter  EnabledFilter
}

func (q *QueryBuilder) WithAll(keys ...ComponentKey) *QueryBuilder {
	q.all = append(q.all, keys...)
	return q
}

func (q *QueryBuilder) WithAny(keys ...ComponentKey) *QueryBuilder {
	q.any = append(q.any, keys...)
	return q
}

func (q *QueryBuilder) WithNone(keys ...ComponentKey) *QueryBuilder {
	q.exclude = append(q.exclude, keys...)
	return q
}

func (q *QueryBuilder) WithEnabled(filter EnabledFilter) *QueryBuilder {
	q.filter = filter
	return q
}

// Execute runs the planner and returns the builder to the world's pool.
func (q *QueryBuilder) Execute() []*Entity {
	result := q.world.execute(q.all, q.any, q.exclude, q.filter)
	q.world.releaseBuilder(q)
	return result
}

func (q *QueryBuilder) reset() {
	q.all = q.all[:0]
	q.any = q.any[:0]
	q.exclude = q.exclude[:0]
	q.filter = FilterAny
}

// execute implements the min-seed query planner: dedupe and intersect
// the smallest all-set first, intersect that with the union of any's
// sets (or adopt the union when all is empty), then subtract exclude.
func (w *World) execute(all, any, exclude []ComponentKey, filter EnabledFilter) []*Entity {
	if len(all) == 0 && len(any) == 0 && len(exclude) == 0 {
		return w.entities
	}

	key := cacheKey(w.componentIDs, all, any, exclude)
	// The enabled filter participates in the cache key by folding it
	// into a fourth small role so distinct filters never collide.
	key ^= uint64(filter+1) * 11
	if cached, ok := w.cache.get(key); ok {
		return cached
	}

	active := w.activeIndex(filter)

	var result map[EntityID]*Entity
	if len(all) > 0 {
		result = w.seedFromAll(active, all)
		if result == nil {
			w.cache.put(key, []*Entity{})
			return []*Entity{}
		}
	}

	if len(any) > 0 {
		union := unionSets(active, any)
		if result == nil {
			result = union
		} else {
			result = intersectSets(result, union)
		}
	}

	if result == nil && len(exclude) > 0 {
		result = make(map[EntityID]*Entity, len(w.entities))
		for _, e := range w.entities {
			result[e.id] = e
		}
	}

	for _, key := range exclude {
		set := active[key]
		for id := range set {
			delete(result, id)
		}
	}

	materialized := make([]*Entity, 0, len(result))
	for _, e := range result {
		materialized = append(materialized, e)
	}
	w.cache.put(key, materialized)
	return materialized
}

// seedFromAll picks the smallest set among all's keys as the seed and
// intersects it with the rest. It returns nil when a required key is
// entirely absent, and stops early, returning the empty set, the
// moment the working set becomes empty.
func (w *World) seedFromAll(active map[ComponentKey]map[EntityID]*Entity, all []ComponentKey) map[EntityID]*Entity {
	seen := make(map[ComponentKey]struct{}, len(all))
	var uniq []ComponentKey
	for _, k := range all {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}

	smallestIdx := -1
	smallestLen := -1
	for i, k := range uniq {
		set := active[k]
		if len(set) == 0 {
			return nil
		}
		if smallestLen == -1 || len(set) < smallestLen {
			smallestLen = len(set)
			smallestIdx = i
		}
	}

	result := make(map[EntityID]*Entity, smallestLen)
	for id, e := range active[uniq[smallestIdx]] {
		result[id] = e
	}

	for i, k := range uniq {
		if i == smallestIdx {
			continue
		}
		set := active[k]
		for id := range result {
			if _, ok := set[id]; !ok {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			return result
		}
	}
	return result
}

func unionSets(active map[ComponentKey]map[EntityID]*Entity, keys []ComponentKey) map[EntityID]*Entity {
	out := make(map[EntityID]*Entity)
	for _, k := range keys {
		for id, e := range active[k] {
			out[id] = e
		}
	}
	return out
}

func intersectSets(a, b map[EntityID]*Entity) map[EntityID]*Entity {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[EntityID]*Entity, len(a))
	for id, e := range a {
		if _, ok := b[id]; ok {
			out[id] = e
		}
	}
	return out
}

func (w *World) activeIndex(filter EnabledFilter) map[ComponentKey]map[EntityID]*Entity {
	switch filter {
	case FilterEnabledOnly:
		return w.index.enabled
	case FilterDisabledOnly:
		return w.index.disabled
	default:
		return w.index.union
	}
}
