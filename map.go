// Package longmap provides a hash map specialized for int64 keys.
package longmap

import (
	"reflect"
)

const (
	// Smallest bucket array we ever hold. Also what Clear() resets to.
	// NOTE: Must be a power of two.
	initialCapacity = 16

	// Cap on the bucket array length so that doubling can't overflow.
	// Once here growth freezes and the chains just get longer.
	maxCapacity = 1 << 30
)

type entry[V any] struct {
	key   int64
	value V
}

// chain is one bucket's collision chain, in insertion order. A nil chain
// means the bucket is absent. Emptied buckets are released back to nil so a
// sparse map doesn't keep a dead slice alive per index.
type chain[V any] []entry[V]

// A Map stores values keyed by int64. Keys are spread over an array of
// buckets by their low-order bits and collisions go into a per-bucket chain.
// The bucket array doubles when the map fills past 3/4 of its length and
// halves when it drains below 1/4, rehashing every entry. It can hold any
// value, a nil one included.
//
// The zero Map is empty and ready to use. A Map must not be used from
// multiple goroutines without external locking.
type Map[V any] struct {
	buckets []chain[V]
	size    int
}

// Makes an empty map.
func Make[V any]() *Map[V] {
	return &Map[V]{buckets: make([]chain[V], initialCapacity)}
}

func (m *Map[V]) Len() int {
	return m.size
}

func (m *Map[V]) IsEmpty() bool {
	return m.size == 0
}

// indexFor selects the home bucket from the key's raw two's-complement bits.
// Negative keys land by bit pattern, not by absolute value, so k and -k stay
// distinguishable. No hashing - the built-in map's hash would scramble the
// low bits and change which keys collide.
func (m *Map[V]) indexFor(key int64) int {
	return int(uint64(key) & uint64(len(m.buckets)-1))
}

// find returns a pointer into the chain so that Put can overwrite the value
// in place.
func (m *Map[V]) find(index int, key int64) *entry[V] {
	c := m.buckets[index]
	for i := range c {
		if c[i].key == key {
			return &c[i]
		}
	}
	return nil
}

// Put adds key=value to the map, growing or shrinking the bucket array first
// if the current size asks for it. Returns the previous value if the key was
// already present.
func (m *Map[V]) Put(key int64, value V) (prev V, replaced bool) {
	m.resize() // sees the pre-insert size
	index := m.indexFor(key)
	if e := m.find(index, key); e != nil {
		prev, e.value = e.value, value
		return prev, true
	}
	// Appending to a nil chain allocates it, so absent buckets cost nothing
	// until a key actually lands in them.
	m.buckets[index] = append(m.buckets[index], entry[V]{key: key, value: value})
	m.size++
	return prev, false
}

func (m *Map[V]) Get(key int64) (V, bool) {
	if len(m.buckets) > 0 {
		if e := m.find(m.indexFor(key), key); e != nil {
			return e.value, true
		}
	}
	var zerov V
	return zerov, false
}

// Remove deletes the key and returns the value it held. The resize check
// runs before the removal itself, off the pre-removal size.
func (m *Map[V]) Remove(key int64) (V, bool) {
	m.resize()
	index := m.indexFor(key)
	c := m.buckets[index]
	for i := range c {
		if c[i].key != key {
			continue
		}
		removed := c[i].value
		if len(c) == 1 {
			m.buckets[index] = nil // release the emptied bucket
		} else {
			copy(c[i:], c[i+1:])
			c[len(c)-1] = entry[V]{} // don't pin the value
			m.buckets[index] = c[:len(c)-1:len(c)-1]
		}
		m.size--
		return removed, true
	}
	var zerov V
	return zerov, false
}

func (m *Map[V]) ContainsKey(key int64) bool {
	if len(m.buckets) == 0 {
		return false
	}
	return m.find(m.indexFor(key), key) != nil
}

// ContainsValue reports whether some key maps to the given value. Values are
// compared structurally with reflect.DeepEqual, so two nil values match each
// other. This walks the whole map but stops as soon as size entries have
// been visited, which is valid only because size always equals the number of
// live entries.
func (m *Map[V]) ContainsValue(value V) bool {
	for visited, index := 0, 0; visited < m.size; index++ {
		for i := range m.buckets[index] {
			if reflect.DeepEqual(m.buckets[index][i].value, value) {
				return true
			}
			visited++
		}
	}
	return false
}

// Keys returns every stored key, exactly Len() of them. Order is bucket
// order and then chain order within the bucket - not insertion order, not
// sorted, and not stable across resizes. Keys()[i] and Values()[i] belong to
// the same entry only if the map was not mutated between the two calls.
func (m *Map[V]) Keys() []int64 {
	keys := make([]int64, 0, m.size)
	for index := 0; len(keys) < m.size; index++ {
		for i := range m.buckets[index] {
			keys = append(keys, m.buckets[index][i].key)
		}
	}
	return keys
}

// Values returns every stored value in the same traversal order as Keys().
func (m *Map[V]) Values() []V {
	values := make([]V, 0, m.size)
	for index := 0; len(values) < m.size; index++ {
		for i := range m.buckets[index] {
			values = append(values, m.buckets[index][i].value)
		}
	}
	return values
}

// Iterates over all of the key-value pairs in the map, in the same traversal
// order as Keys() and Values(), stopping early if iter returns false. Unlike
// a Keys() call followed by a Values() call this hands out each pair
// together, so there is no alignment hazard. Don't modify the map while
// iterating.
func (m *Map[V]) Iterate(iter func(key int64, value V) bool) {
	for visited, index := 0, 0; visited < m.size; index++ {
		c := m.buckets[index]
		for i := range c {
			visited++
			if !iter(c[i].key, c[i].value) {
				return
			}
		}
	}
}

// Clear empties the map back to a fresh bucket array of the minimum length.
// Not a partial clear - every chain and entry is dropped for the GC.
func (m *Map[V]) Clear() {
	m.buckets = make([]chain[V], initialCapacity)
	m.size = 0
}

// newCapacity is the bucket array length the current size asks for: double
// when more than 3/4 full, halve when less than 1/4 full, otherwise keep.
// The capacity is a power of two >= 16 so the integer math here is exact.
func (m *Map[V]) newCapacity() int {
	capacity := len(m.buckets)
	if m.size > capacity/4*3 {
		if capacity < maxCapacity {
			capacity *= 2
		}
	} else if m.size < capacity/4 {
		if capacity > initialCapacity {
			capacity /= 2
		}
	}
	return capacity
}

// resize replaces the bucket array when newCapacity says so and rehashes
// every entry into its bucket under the new length. The entry set and size
// never change here, only where the entries live. Runs at the start of Put
// and Remove so the decision is made off the size before that operation.
func (m *Map[V]) resize() {
	if len(m.buckets) == 0 {
		// zero Map, first mutation
		m.buckets = make([]chain[V], initialCapacity)
		return
	}
	newCapacity := m.newCapacity()
	if newCapacity == len(m.buckets) {
		return
	}
	old := m.buckets
	m.buckets = make([]chain[V], newCapacity)
	mask := uint64(newCapacity - 1)
	for remaining, index := m.size, 0; remaining > 0; index++ {
		for _, e := range old[index] {
			i := int(uint64(e.key) & mask)
			m.buckets[i] = append(m.buckets[i], e)
			remaining--
		}
		old[index] = nil
	}
}
