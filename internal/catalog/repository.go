package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for service catalog storage
type Repository interface {
	// ListActive returns active services ordered by id.
	ListActive(ctx context.Context) ([]*Service, error)
	// List returns every service, active or not, ordered by id.
	List(ctx context.Context) ([]*Service, error)
	// GetActive returns the service only when it exists and is active.
	GetActive(ctx context.Context, id int64) (*Service, error)
	// Get returns the service regardless of its active flag. Existing
	// bookings keep referencing deactivated services.
	Get(ctx context.Context, id int64) (*Service, error)
	Create(ctx context.Context, req *CreateServiceRequest) (*Service, error)
	Update(ctx context.Context, id int64, req *UpdateServiceRequest) (*Service, error)
	Delete(ctx context.Context, id int64) error
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	services map[int64]*Service
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:   1,
		services: make(map[int64]*Service),
	}
}

func (r *InMemoryRepository) ListActive(ctx context.Context) ([]*Service, error) {
	return r.list(func(s *Service) bool { return s.Active }), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Service, error) {
	return r.list(func(*Service) bool { return true }), nil
}

func (r *InMemoryRepository) GetActive(ctx context.Context, id int64) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok || !svc.Active {
		return nil, ErrServiceNotFound
	}
	copied := *svc
	return &copied, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	copied := *svc
	return &copied, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	svc := &Service{
		ID:              r.nextID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          req.IsActive(),
		CreatedAt:       time.Now().UTC(),
	}
	r.nextID++
	r.services[svc.ID] = svc

	copied := *svc
	return &copied, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int64, req *UpdateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		svc.PriceCents = *req.PriceCents
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}

	copied := *svc
	return &copied, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *InMemoryRepository) list(keep func(*Service) bool) []*Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		if keep(svc) {
			copied := *svc
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
