package reflection

// elementMap keys values by code element equality rather than identity.
type elementMap[K CodeElementInfo, V any] struct {
	buckets map[uint64][]elementEntry[K, V]
	size    int
}

type elementEntry[K CodeElementInfo, V any] struct {
	key   K
	value V
}

func newElementMap[K CodeElementInfo, V any]() *elementMap[K, V] {
	return &elementMap[K, V]{buckets: make(map[uint64][]elementEntry[K, V])}
}

func (m *elementMap[K, V]) Get(key K) (V, bool) {
	for _, e := range m.buckets[key.Hash()] {
		if e.key.Equals(key) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

func (m *elementMap[K, V]) Put(key K, value V) {
	h := key.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.key.Equals(key) {
			bucket[i].value = value
			return
		}
	}
	m.buckets[h] = append(bucket, elementEntry[K, V]{key: key, value: value})
	m.size++
}

func (m *elementMap[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *elementMap[K, V]) Len() int {
	return m.size
}

// elementSet is an insertion-ordered set of code elements.
type elementSet[K CodeElementInfo] struct {
	index *elementMap[K, struct{}]
	items []K
}

func newElementSet[K CodeElementInfo]() *elementSet[K] {
	return &elementSet[K]{index: newElementMap[K, struct{}]()}
}

// Add inserts key and reports whether it was absent.
func (s *elementSet[K]) Add(key K) bool {
	if s.index.Contains(key) {
		return false
	}
	s.index.Put(key, struct{}{})
	s.items = append(s.items, key)
	return true
}

func (s *elementSet[K]) Contains(key K) bool {
	return s.index.Contains(key)
}

func (s *elementSet[K]) Items() []K {
	return s.items
}
