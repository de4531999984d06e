package core

// IdentityMap assigns run scoped surrogate ids to source keys.
type IdentityMap[K comparable] struct {
	ids   map[K]int64
	order []K
	max   int64
}

func NewIdentityMap[K comparable]() *IdentityMap[K] {
	return &IdentityMap[K]{ids: make(map[K]int64)}
}

// Register returns the id of k, assigning max+1 on first sight.
func (m *IdentityMap[K]) Register(k K) int64 {
	if id, ok := m.ids[k]; ok {
		return id
	}
	m.max++
	m.ids[k] = m.max
	m.order = append(m.order, k)
	return m.max
}

func (m *IdentityMap[K]) Lookup(k K) (int64, bool) {
	id, ok := m.ids[k]
	return id, ok
}

// Seed pins k to id. Later registrations never reuse a seeded id.
func (m *IdentityMap[K]) Seed(k K, id int64) {
	if _, ok := m.ids[k]; !ok {
		m.order = append(m.order, k)
	}
	m.ids[k] = id
	if id > m.max {
		m.max = id
	}
}

func (m *IdentityMap[K]) Len() int {
	return len(m.ids)
}

// Keys returns the keys in insertion order.
func (m *IdentityMap[K]) Keys() []K {
	out := make([]K, len(m.order))
	copy(out, m.order)
	return out
}
