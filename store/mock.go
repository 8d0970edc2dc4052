package store

import (
	"context"
	"sort"
	"sync"
)

// MockDriver is an in-memory Driver for testing. Optional error hooks let
// tests inject storage failures.
type MockDriver struct {
	mu       sync.Mutex
	sessions map[string]*Session

	// UpsertErr, when set, is returned by UpsertSession for matching ids.
	// An empty FailID fails every upsert.
	UpsertErr error
	FailID    string
}

// NewMockDriver creates an empty in-memory driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{sessions: make(map[string]*Session)}
}

func (m *MockDriver) Close() error { return nil }

func (m *MockDriver) UpsertSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil && (m.FailID == "" || m.FailID == session.ID) {
		return m.UpsertErr
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MockDriver) ListSessions(ctx context.Context, find *FindSession) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if find != nil && find.ID != nil && s.ID != *find.ID {
			continue
		}
		if find != nil && find.OwnerID != nil && s.OwnerID != *find.OwnerID {
			continue
		}
		list = append(list, s.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedTs > list[j].UpdatedTs })
	return list, nil
}

func (m *MockDriver) DeleteSession(ctx context.Context, del *DeleteSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, del.ID)
	return nil
}

func (m *MockDriver) RenameSession(ctx context.Context, rename *RenameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[rename.ID]; ok {
		s.Name = rename.Name
	}
	return nil
}

func (m *MockDriver) ClearSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
	return nil
}

// Get returns the stored copy of a session, if any.
func (m *MockDriver) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Len returns the number of stored sessions.
func (m *MockDriver) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

var _ Driver = (*MockDriver)(nil)
