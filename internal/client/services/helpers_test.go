package services

import (
	"sync"
	"testing"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/repositories/kv"
	"github.com/dmitrijs2005/bidmarket/internal/client/session"
)

var (
	ann = models.UserSummary{ID: "1", Name: "Ann", Email: "a@b.com", Role: models.RoleBuyer, CreatedAt: "2024-01-01"}
	sam = models.UserSummary{ID: "2", Name: "Sam", Email: "s@b.com", Role: models.RoleSeller, CreatedAt: "2024-01-02"}
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(kv.NewMemoryRepository())
}

// notices collects emitted notices.
type notices struct {
	mu  sync.Mutex
	all []models.Notice
}

func (n *notices) fn() models.NoticeFunc {
	return func(x models.Notice) {
		n.mu.Lock()
		n.all = append(n.all, x)
		n.mu.Unlock()
	}
}

func (n *notices) last() models.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.all) == 0 {
		return models.Notice{}
	}
	return n.all[len(n.all)-1]
}

func (n *notices) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.all)
}
