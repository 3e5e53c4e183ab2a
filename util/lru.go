package util

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
)

/*
LRU is a fixed-capacity cache that evicts the least recently used entry when
full. It is safe for concurrent use. The MCAP adapter keeps compiled schemas in
one, keyed by a hash of the schema record.
*/

////////////////////////////////////////////////////////////////////////////////

// LRU is a least-recently-used cache.
type LRU[K comparable, V any] struct {
	mtx     sync.Mutex
	entries map[K]*list.Element
	order   *list.List
	cap     int
	evicted int
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU returns an LRU cache holding at most capacity entries. A capacity
// below one is treated as one.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		entries: make(map[K]*list.Element),
		order:   list.New(),
		cap:     max(capacity, 1),
	}
}

// Put inserts or replaces the value for key and marks it most recently used.
func (lru *LRU[K, V]) Put(key K, value V) {
	lru.mtx.Lock()
	defer lru.mtx.Unlock()
	if elem, ok := lru.entries[key]; ok {
		elem.Value.(*entry[K, V]).value = value
		lru.order.MoveToFront(elem)
		return
	}
	lru.entries[key] = lru.order.PushFront(&entry[K, V]{key: key, value: value})
	for lru.order.Len() > lru.cap {
		oldest := lru.order.Back()
		lru.order.Remove(oldest)
		delete(lru.entries, oldest.Value.(*entry[K, V]).key)
		lru.evicted++
	}
}

// Get returns the value for key and whether it was present.
func (lru *LRU[K, V]) Get(key K) (V, bool) {
	lru.mtx.Lock()
	defer lru.mtx.Unlock()
	if elem, ok := lru.entries[key]; ok {
		lru.order.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Len returns the number of cached entries.
func (lru *LRU[K, V]) Len() int {
	lru.mtx.Lock()
	defer lru.mtx.Unlock()
	return lru.order.Len()
}

// Evictions returns the number of entries evicted since creation or the last
// reset.
func (lru *LRU[K, V]) Evictions() int {
	lru.mtx.Lock()
	defer lru.mtx.Unlock()
	return lru.evicted
}

// Reset empties the cache.
func (lru *LRU[K, V]) Reset() {
	lru.mtx.Lock()
	defer lru.mtx.Unlock()
	lru.entries = make(map[K]*list.Element)
	lru.order.Init()
	lru.evicted = 0
}

// String lists the entries from most to least recently used.
func (lru *LRU[K, V]) String() string {
	lru.mtx.Lock()
	defer lru.mtx.Unlock()
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "(%d/%d) [", lru.order.Len(), lru.cap)
	for elem := lru.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry[K, V])
		fmt.Fprintf(sb, "%v:%v", e.key, e.value)
		if elem.Next() != nil {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
