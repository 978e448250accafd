package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is a string-to-string JSON object that remembers the key order
// of the document it was decoded from. npm resolves dependency sections in
// declaration order, so findings must be reported in the same order.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

func (m *OrderedMap) Set(key, value string) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap) Get(key string) (string, bool) {
	value, ok := m.values[key]
	return value, ok
}

func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// Keys returns the keys in declaration order. The returned slice is owned by
// the map and must not be mutated.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil { // JSON null
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("value of %q is not a string: %w", key, err)
		}
		m.Set(key, value)
	}

	_, err = dec.Token() // consume closing brace
	return err
}

func (m OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
