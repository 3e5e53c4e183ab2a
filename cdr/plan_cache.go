package cdr

import (
	"sync"

	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
)

type planKey struct {
	schema   *schema.MessageSchema
	typeName string
}

// PlanCache memoizes compiled plans per schema and requested type name.
// Schemas are compared by identity, so two schemas that share a type name but
// differ in definition get separate plans. Lookups take a shared lock only.
// Two goroutines that miss on the same key concurrently both compile it and
// the later store wins; the plans are equivalent.
//
// The cache holds a reference to every schema it has compiled until Reset.
type PlanCache struct {
	mtx          *sync.RWMutex
	plans        map[planKey]*Plan
	bytesAsBlobs bool
}

// NewPlanCache returns an empty plan cache.
func NewPlanCache() *PlanCache {
	return &PlanCache{
		mtx:   &sync.RWMutex{},
		plans: make(map[planKey]*Plan),
	}
}

// Get returns the plan for typeName within s, compiling it on a miss. An
// empty type name selects the schema's root type. Returned plans are shared
// and must not be modified.
func (pc *PlanCache) Get(s *schema.MessageSchema, typeName string) (*Plan, error) {
	key := planKey{schema: s, typeName: util.When(typeName == "", s.Name, typeName)}
	pc.mtx.RLock()
	plan, ok := pc.plans[key]
	pc.mtx.RUnlock()
	if ok {
		return plan, nil
	}
	plan, err := compile(s, key.typeName, pc.bytesAsBlobs)
	if err != nil {
		return nil, err
	}
	pc.mtx.Lock()
	pc.plans[key] = plan
	pc.mtx.Unlock()
	return plan, nil
}

// Len returns the number of cached plans.
func (pc *PlanCache) Len() int {
	pc.mtx.RLock()
	defer pc.mtx.RUnlock()
	return len(pc.plans)
}

// Reset clears the cache.
func (pc *PlanCache) Reset() {
	pc.mtx.Lock()
	defer pc.mtx.Unlock()
	pc.plans = make(map[planKey]*Plan)
}
