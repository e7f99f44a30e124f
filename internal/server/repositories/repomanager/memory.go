package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/projects"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. WithinTx
// serializes transactional blocks but cannot roll back their writes.
type MemoryRepositoryManager struct {
	txMu          sync.Mutex
	users         *users.MemoryRepository
	registrations *registrations.MemoryRepository
	projects      *projects.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	u := users.NewMemoryRepository()
	names := func(ctx context.Context, id string) string {
		if user, err := u.GetByID(ctx, id); err == nil {
			return user.Name
		}
		return ""
	}
	return &MemoryRepositoryManager{
		users:         u,
		registrations: registrations.NewMemoryRepository(),
		projects:      projects.NewMemoryRepository(names),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Registrations() registrations.Repository { return m.registrations }

func (m *MemoryRepositoryManager) Projects() projects.Repository { return m.projects }

func (m *MemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
