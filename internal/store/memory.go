package store

import (
	"context"
	"sort"
	"sync"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

// Memory keeps sessions in process. It is only visible to one server, so it
// must not back a deployment with several stateless handlers.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, code string) (*game.Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[code]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *Memory) Insert(_ context.Context, s *game.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Code]; ok {
		return ErrExists
	}
	m.sessions[s.Code] = data
	return nil
}

func (m *Memory) Put(_ context.Context, s *game.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.Code] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[code]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, code)
	return nil
}

func (m *Memory) List(_ context.Context) ([]*game.Session, error) {
	m.mu.RLock()
	codes := make([]string, 0, len(m.sessions))
	for code := range m.sessions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	blobs := make([][]byte, len(codes))
	for i, code := range codes {
		blobs[i] = m.sessions[code]
	}
	m.mu.RUnlock()

	out := make([]*game.Session, 0, len(blobs))
	for _, data := range blobs {
		s, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
