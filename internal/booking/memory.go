package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omnavneet/nerveconnect-sub000/internal/model"
)

// MemoryStore is an in-memory Store used by tests and local development.
// WithProviderLock snapshots state and restores it when the enclosed function
// fails, mirroring the rollback the Postgres store gets from its transaction.
type MemoryStore struct {
	mu        sync.Mutex
	patients  map[string]model.Patient  // keyed by name
	providers map[string]model.Provider // keyed by name
	appts     map[string]model.Appointment
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:  make(map[string]model.Patient),
		providers: make(map[string]model.Provider),
		appts:     make(map[string]model.Appointment),
		now:       time.Now,
	}
}

func (m *MemoryStore) FindOrCreatePatient(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.patients[name]; ok {
		return p.ID, nil
	}
	p := model.Patient{ID: uuid.New().String(), Name: name, CreatedAt: m.now()}
	m.patients[name] = p
	return p.ID, nil
}

func (m *MemoryStore) FindOrCreateProvider(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.providers[name]; ok {
		return p.ID, nil
	}
	p := model.Provider{ID: uuid.New().String(), Name: name, CreatedAt: m.now()}
	m.providers[name] = p
	return p.ID, nil
}

func (m *MemoryStore) ProviderByName(_ context.Context, name string) (*model.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.providers[name]; ok {
		out := p
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) AppointmentStarts(_ context.Context, providerID string) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var starts []time.Time
	for _, a := range m.appts {
		if a.ProviderID == providerID {
			starts = append(starts, a.StartTime)
		}
	}
	return starts, nil
}

func (m *MemoryStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appts[a.ID] = *a
	return nil
}

func (m *MemoryStore) ListAppointments(_ context.Context, providerID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if a.ProviderID == providerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appts[id]; ok {
		out := a
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) WithProviderLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	patients := copyMap(m.patients)
	providers := copyMap(m.providers)
	appts := copyMap(m.appts)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.patients = patients
		m.providers = providers
		m.appts = appts
		m.mu.Unlock()
		return err
	}
	return nil
}

// Patients reports how many patient rows exist, for test assertions.
func (m *MemoryStore) Patients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patients)
}

// Providers reports how many provider rows exist, for test assertions.
func (m *MemoryStore) Providers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.providers)
}

// Appointments reports how many appointment rows exist, for test assertions.
func (m *MemoryStore) Appointments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
