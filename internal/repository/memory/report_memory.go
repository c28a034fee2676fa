package memory

import (
	"context"
	"sync"

	"laporan/internal/model"
	"laporan/internal/repository"
)

// ReportMemory is an in-process implementation of repository.ReportRepository.
// Reports are kept in insertion order. It is safe for concurrent use; callers
// always receive copies.
type ReportMemory struct {
	mu      sync.RWMutex
	reports []model.Report
}

// NewReportMemory creates an empty in-memory repository.
func NewReportMemory() *ReportMemory {
	return &ReportMemory{}
}

var _ repository.ReportRepository = (*ReportMemory)(nil)

func (m *ReportMemory) Create(_ context.Context, r *model.Report) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports = append(m.reports, *r)
	out := *r
	return &out, nil
}

func (m *ReportMemory) List(_ context.Context) ([]model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Report, len(m.reports))
	copy(out, m.reports)
	return out, nil
}

func (m *ReportMemory) FindByID(_ context.Context, id string) (*model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	out := m.reports[i]
	return &out, nil
}

func (m *ReportMemory) Update(_ context.Context, id string, u model.ReportUpdate) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	u.Apply(&m.reports[i])
	out := m.reports[i]
	return &out, nil
}

func (m *ReportMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	m.reports = append(m.reports[:i], m.reports[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (m *ReportMemory) indexOf(id string) int {
	for i := range m.reports {
		if m.reports[i].ID == id {
			return i
		}
	}
	return -1
}

// PingContext always succeeds; the store lives in process.
func (m *ReportMemory) PingContext(context.Context) error { return nil }
