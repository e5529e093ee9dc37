package bitfield

// Map is the decoded form of a struct field. It preserves declaration order,
// which plain Go maps cannot.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{vals: map[string]any{}}
}

// Set stores v under k, appending k to the key order if new.
func (m *Map) Set(k string, v any) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not modify it.
func (m *Map) Keys() []string {
	return m.keys
}

// Len reports the number of keys.
func (m *Map) Len() int {
	return len(m.keys)
}
