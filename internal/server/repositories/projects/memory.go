package projects

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
)

// MemoryRepository keeps projects and bids in maps. Seller names are
// resolved through names, which the memory repository manager wires to the
// user store.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]models.Project
	bids     map[string]models.Bid
	order    map[string]int64
	seq      int64
	names    func(ctx context.Context, userID string) string
}

func NewMemoryRepository(names func(ctx context.Context, userID string) string) *MemoryRepository {
	if names == nil {
		names = func(context.Context, string) string { return "" }
	}
	return &MemoryRepository{
		projects: make(map[string]models.Project),
		bids:     make(map[string]models.Bid),
		order:    make(map[string]int64),
		names:    names,
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Bids = []models.Bid{}
	r.projects[p.ID] = *p
	r.stamp(p.ID)
	return p, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.Project, error) {
	return r.filter(ctx, func(models.Project) bool { return true }), nil
}

func (r *MemoryRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Project, error) {
	return r.filter(ctx, func(p models.Project) bool { return p.BuyerID == buyerID }), nil
}

func (r *MemoryRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Project, error) {
	return r.filter(ctx, func(p models.Project) bool { return p.SellerID != nil && *p.SellerID == sellerID }), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.Bids = r.bidsOf(ctx, id)
	return &p, nil
}

func (r *MemoryRepository) CreateBid(ctx context.Context, b *models.Bid) (*models.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[b.ProjectID]; !ok {
		return nil, common.ErrNotFound
	}
	b.CreatedAt = time.Now().UTC()
	b.SellerName = r.names(ctx, b.SellerID)
	r.bids[b.ID] = *b
	r.stamp(b.ID)
	return b, nil
}

func (r *MemoryRepository) GetBid(_ context.Context, id string) (*models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bids[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) ListBidsBySeller(_ context.Context, sellerID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Bid{}
	for _, b := range r.bids {
		if b.SellerID == sellerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] > r.order[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) Assign(_ context.Context, projectID, bidID, sellerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[projectID]
	if !ok {
		return common.ErrNotFound
	}
	p.Status = models.ProjectInProgress
	p.SellerID = &sellerID
	p.SelectedBid = &bidID
	p.UpdatedAt = time.Now().UTC()
	r.projects[projectID] = p

	for id, b := range r.bids {
		if b.ProjectID != projectID {
			continue
		}
		if id == bidID {
			b.Status = models.BidSelected
		} else {
			b.Status = models.BidRejected
		}
		r.bids[id] = b
	}
	return nil
}

func (r *MemoryRepository) Complete(_ context.Context, projectID, bidID, documentKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[projectID]
	if !ok {
		return common.ErrNotFound
	}
	b, ok := r.bids[bidID]
	if !ok || b.ProjectID != projectID {
		return common.ErrNotFound
	}

	p.Status = models.ProjectCompleted
	p.DocumentKey = &documentKey
	p.UpdatedAt = time.Now().UTC()
	r.projects[projectID] = p

	b.Status = models.BidCompleted
	r.bids[bidID] = b
	return nil
}

func (r *MemoryRepository) filter(ctx context.Context, keep func(models.Project) bool) []models.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Project{}
	for _, p := range r.projects {
		if keep(p) {
			p.Bids = r.bidsOf(ctx, p.ID)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] > r.order[out[j].ID] })
	return out
}

// bidsOf must be called with mu held.
func (r *MemoryRepository) bidsOf(_ context.Context, projectID string) []models.Bid {
	out := []models.Bid{}
	for _, b := range r.bids {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out
}

// stamp records insertion order, which timestamps cannot break ties on.
func (r *MemoryRepository) stamp(id string) {
	r.seq++
	r.order[id] = r.seq
}
