package session

import (
	"encoding/json"
	"fmt"
)

// Attributes is an insertion-ordered string-keyed map.
// The zero value is ready to use.
type Attributes struct {
	keys   []string
	values map[string]any
}

type attributePair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	if a.values == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the key order;
// overwriting an existing key keeps its position.
func (a *Attributes) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Remove deletes key and returns the removed value, or nil if key was absent.
func (a *Attributes) Remove(key string) any {
	v, ok := a.values[key]
	if !ok {
		return nil
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
	return v
}

// Keys returns a snapshot of the keys in insertion order.
// The result is never nil.
func (a *Attributes) Keys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Len returns the number of stored keys.
func (a *Attributes) Len() int {
	return len(a.keys)
}

// Clone returns a copy that shares no key slice or map with a.
// Values themselves are copied shallowly.
func (a *Attributes) Clone() Attributes {
	c := Attributes{keys: a.Keys()}
	if a.values != nil {
		c.values = make(map[string]any, len(a.values))
		for k, v := range a.values {
			c.values[k] = v
		}
	}
	return c
}

// MarshalJSON encodes the attributes as an ordered array of key/value pairs.
func (a Attributes) MarshalJSON() ([]byte, error) {
	pairs := make([]attributePair, 0, len(a.keys))
	for _, k := range a.keys {
		pairs = append(pairs, attributePair{Key: k, Value: a.values[k]})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes attributes previously encoded by MarshalJSON.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var pairs []attributePair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	*a = Attributes{}
	for _, p := range pairs {
		a.Set(p.Key, p.Value)
	}
	return nil
}
