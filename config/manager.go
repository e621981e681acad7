package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Manager holds nested configuration addressed by dotted keys such as
// "fixtures.foreign_keys.managers".
type Manager struct {
	mu   sync.RWMutex
	tree map[string]any
}

func NewManager() *Manager {
	return &Manager{tree: make(map[string]any)}
}

// FromDir loads every YAML file under dir into a new Manager.
func FromDir(dir string) (*Manager, error) {
	data, err := NewLoader(dir).Load()
	if err != nil {
		return nil, err
	}

	m := NewManager()
	m.Load(data)
	return m, nil
}

// Load replaces the whole tree.
func (m *Manager) Load(data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data == nil {
		data = make(map[string]any)
	}
	m.tree = data
}

// Set stores value under key, creating intermediate sections as needed.
func (m *Manager) Set(key string, value any) {
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	section := m.tree
	for {
		head, rest, nested := strings.Cut(key, ".")
		if !nested {
			section[head] = value
			return
		}

		child, ok := section[head].(map[string]any)
		if !ok {
			child = make(map[string]any)
			section[head] = child
		}
		section, key = child, rest
	}
}

// Get returns the value under key, or nil.
func (m *Manager) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var current any = m.tree
	for _, part := range strings.Split(key, ".") {
		section, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = section[part]; !ok {
			return nil
		}
	}
	return current
}

func (m *Manager) Has(key string) bool {
	return m.Get(key) != nil
}

func (m *Manager) GetString(key string) string {
	switch v := m.Get(key).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// GetBool accepts YAML booleans and the strings strconv.ParseBool understands.
func (m *Manager) GetBool(key string) bool {
	switch v := m.Get(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// GetStrings returns a list value. A scalar becomes a one element list and a
// string is split on commas, so env placeholders can carry lists.
func (m *Manager) GetStrings(key string) []string {
	switch v := m.Get(key).(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), v...)
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			result = append(result, fmt.Sprint(item))
		}
		return result
	case string:
		var result []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		return result
	default:
		return []string{fmt.Sprint(v)}
	}
}
