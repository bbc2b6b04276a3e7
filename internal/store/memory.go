package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-memory Store. It backs tests and the
// no-database development mode.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Create(_ context.Context, input CreateInput) (*Record, error) {
	now := time.Now()
	record := &Record{
		ID:             uuid.NewString(),
		ResumeText:     input.ResumeText,
		CompanyInfo:    input.CompanyInfo,
		JobDescription: input.JobDescription,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record

	copied := *record
	return &copied, nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *record
	return &copied, nil
}

func (m *Memory) SaveResult(_ context.Context, input ResultInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[input.SessionID]
	if !ok {
		return ErrNotFound
	}

	record.Context = input.Context
	record.Report = input.Report
	record.Sentiments = input.Sentiments
	record.UpdatedAt = time.Now()

	return nil
}

func (m *Memory) List(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Record, 0, len(m.records))
	for _, record := range m.records {
		copied := *record
		records = append(records, &copied)
	}

	return records, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)

	return nil
}
