package clipboard

import "sync"

// Memory is an in-process clipboard used on hosts without a system one
// (headless servers, containers). The last copied text wins.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}

// Text returns the last copied text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}
