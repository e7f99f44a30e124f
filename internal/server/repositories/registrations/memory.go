package registrations

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
)

type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]models.PendingRegistration
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.PendingRegistration)}
}

func (r *MemoryRepository) Upsert(_ context.Context, reg *models.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[strings.ToLower(reg.Email)] = *reg
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, email string) (*models.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.items[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &reg, nil
}

func (r *MemoryRepository) AddFailedAttempt(_ context.Context, email string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(email)
	reg, ok := r.items[key]
	if !ok {
		return 0, common.ErrNotFound
	}
	reg.Attempts++
	r.items[key] = reg
	return reg.Attempts, nil
}

func (r *MemoryRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, strings.ToLower(email))
	return nil
}
