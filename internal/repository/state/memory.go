package state

import "sync"

// Memory keeps values in a map. It does not survive restarts and is meant for
// tests and the "memory" storage driver.
type Memory struct {
	mu            sync.RWMutex
	values        map[string]string
	maxValueBytes int
}

// NewMemory returns an empty Memory store. maxValueBytes <= 0 disables the limit.
func NewMemory(maxValueBytes int) *Memory {
	return &Memory{
		values:        make(map[string]string),
		maxValueBytes: maxValueBytes,
	}
}

func (m *Memory) ReadRaw(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	return v, ok, nil
}

func (m *Memory) WriteRaw(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := checkSize(value, m.maxValueBytes); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) EraseRaw(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
