package projects

import (
	"context"

	"github.com/dmitrijs2005/bidmarket/internal/server/models"
)

// Repository stores projects together with their bids. Projects returned by
// List and Get carry their bids, oldest first; missing rows yield
// common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Project, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Project, error)

	CreateBid(ctx context.Context, b *models.Bid) (*models.Bid, error)
	GetBid(ctx context.Context, id string) (*models.Bid, error)
	ListBidsBySeller(ctx context.Context, sellerID string) ([]models.Bid, error)

	// Assign marks bidID as the winner of projectID, moves the project to
	// IN_PROGRESS with the bid's seller and rejects the other bids.
	Assign(ctx context.Context, projectID, bidID, sellerID string) error
	// Complete marks both the project and its selected bid COMPLETED and
	// records where the delivered document is stored.
	Complete(ctx context.Context, projectID, bidID, documentKey string) error
}
