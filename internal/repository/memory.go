package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/queue-service/internal/domain"
)

// Memory repositories keep the ledger in process. They are the default store
// for a single counter station and back the service tests.

type memorySectorRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Sector
}

// NewMemorySectorRepository returns an empty in-memory sector store.
func NewMemorySectorRepository() SectorRepository {
	return &memorySectorRepository{items: make(map[string]domain.Sector)}
}

func (r *memorySectorRepository) Create(_ context.Context, sector *domain.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[sector.ID]; !exists {
		r.order = append(r.order, sector.ID)
	}
	r.items[sector.ID] = cloneSector(*sector)
	return nil
}

func (r *memorySectorRepository) Update(_ context.Context, sector *domain.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[sector.ID]; !exists {
		return ErrNotFound
	}
	r.items[sector.ID] = cloneSector(*sector)
	return nil
}

func (r *memorySectorRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; !exists {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memorySectorRepository) GetByID(_ context.Context, id string) (*domain.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sector, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneSector(sector)
	return &c, nil
}

func (r *memorySectorRepository) List(_ context.Context) ([]domain.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Sector, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, cloneSector(r.items[id]))
	}
	return result, nil
}

func cloneSector(s domain.Sector) domain.Sector {
	s.Tags = append([]string(nil), s.Tags...)
	s.AllowedForwardTo = append([]string(nil), s.AllowedForwardTo...)
	return s
}

type memoryTicketRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]*domain.Ticket
}

// NewMemoryTicketRepository returns an empty in-memory ledger.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{items: make(map[string]*domain.Ticket)}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[ticket.ID]; !exists {
		r.order = append(r.order, ticket.ID)
	}
	r.items[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[ticket.ID]; !exists {
		return ErrNotFound
	}
	r.items[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(r.order))
	for _, id := range r.order {
		ticket := r.items[id]
		if !filter.Matches(ticket) {
			continue
		}
		result = append(result, *ticket.Clone())
	}
	return result, nil
}

func (r *memoryTicketRepository) CountBySector(_ context.Context, sectorID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, ticket := range r.items {
		if ticket.SectorID == sectorID {
			count++
		}
	}
	return count, nil
}

type memoryUserRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.User
}

// NewMemoryUserRepository returns an empty in-memory account store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{items: make(map[string]domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[user.ID]; !exists {
		r.order = append(r.order, user.ID)
	}
	r.items[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[user.ID]; !exists {
		return ErrNotFound
	}
	r.items[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; !exists {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneUser(user)
	return &c, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		user := r.items[id]
		if strings.EqualFold(user.Email, email) {
			c := cloneUser(user)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, cloneUser(r.items[id]))
	}
	return result, nil
}

func cloneUser(u domain.User) domain.User {
	u.Sessions = append([]domain.Session(nil), u.Sessions...)
	return u
}

type memorySequenceRepository struct {
	mu   sync.Mutex
	next map[string]int64
}

// NewMemorySequenceRepository returns process-local sector counters.
func NewMemorySequenceRepository() SequenceRepository {
	return &memorySequenceRepository{next: make(map[string]int64)}
}

func (r *memorySequenceRepository) Next(_ context.Context, sectorID string, floor int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value := r.next[sectorID] + 1
	if value < floor {
		value = floor
	}
	r.next[sectorID] = value
	return value, nil
}
