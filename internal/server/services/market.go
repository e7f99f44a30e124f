package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/documents"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NewProject struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BudgetMin   decimal.Decimal `json:"budgetMin"`
	BudgetMax   decimal.Decimal `json:"budgetMax"`
	Deadline    string          `json:"deadline"`
}

type NewBid struct {
	ProjectID     string          `json:"projectId"`
	Amount        decimal.Decimal `json:"amount"`
	EstimatedTime string          `json:"estimatedTime"`
	Message       string          `json:"message"`
}

// Upload is a completion document received from a seller.
type Upload struct {
	Name        string
	ContentType string
	Body        []byte
}

type MarketService struct {
	repomanager repomanager.RepositoryManager
	documents   documents.Store
	log         logging.Logger
}

func NewMarketService(m repomanager.RepositoryManager, docs documents.Store, log logging.Logger) *MarketService {
	return &MarketService{repomanager: m, documents: docs, log: log}
}

// List is the public listing, newest first, with bids attached.
func (s *MarketService) List(ctx context.Context) ([]models.Project, error) {
	return s.repomanager.Projects().List(ctx)
}

func (s *MarketService) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.repomanager.Projects().Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fail(common.ErrNotFound, "Project not found")
	}
	return p, err
}

func (s *MarketService) CreateProject(ctx context.Context, caller Principal, in NewProject) (*models.Project, error) {
	if caller.Role != models.RoleBuyer {
		return nil, fail(common.ErrForbidden, "Only buyers can post projects")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Deadline = strings.TrimSpace(in.Deadline)
	switch {
	case in.Title == "" || in.Description == "":
		return nil, fail(common.ErrValidation, "Title and description are required")
	case !in.BudgetMin.IsPositive() || !in.BudgetMax.IsPositive():
		return nil, fail(common.ErrValidation, "Budget must be positive")
	case in.BudgetMin.GreaterThan(in.BudgetMax):
		return nil, fail(common.ErrValidation, "Minimum budget exceeds maximum")
	case !validDeadline(in.Deadline):
		return nil, fail(common.ErrValidation, "Deadline must be a date (YYYY-MM-DD)")
	}

	p := &models.Project{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		BudgetMin:   in.BudgetMin.Round(2),
		BudgetMax:   in.BudgetMax.Round(2),
		Deadline:    in.Deadline,
		Status:      models.ProjectPending,
		BuyerID:     caller.UserID,
	}
	p, err := s.repomanager.Projects().Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}

	s.log.Info(ctx, "project created", "project_id", p.ID, "buyer_id", caller.UserID)
	return p, nil
}

// SubmitBid places the caller's offer on a pending project. A seller bids at
// most once per project.
func (s *MarketService) SubmitBid(ctx context.Context, caller Principal, in NewBid) (*models.Bid, error) {
	if caller.Role != models.RoleSeller {
		return nil, fail(common.ErrForbidden, "Only sellers can place bids")
	}

	in.EstimatedTime = strings.TrimSpace(in.EstimatedTime)
	in.Message = strings.TrimSpace(in.Message)
	switch {
	case in.ProjectID == "":
		return nil, fail(common.ErrValidation, "Project is required")
	case !in.Amount.IsPositive():
		return nil, fail(common.ErrValidation, "Bid amount must be positive")
	case in.EstimatedTime == "" || in.Message == "":
		return nil, fail(common.ErrValidation, "Please fill in all required fields")
	}

	var bid *models.Bid
	err := s.repomanager.WithinTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		p, err := r.Projects().Get(ctx, in.ProjectID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fail(common.ErrNotFound, "Project not found")
			}
			return err
		}
		if p.Status != models.ProjectPending {
			return fail(common.ErrConflict, "Project is no longer accepting bids")
		}
		for _, b := range p.Bids {
			if b.SellerID == caller.UserID {
				return fail(common.ErrConflict, "You have already placed a bid on this project")
			}
		}

		bid, err = r.Projects().CreateBid(ctx, &models.Bid{
			ID:            uuid.NewString(),
			ProjectID:     p.ID,
			SellerID:      caller.UserID,
			Amount:        in.Amount.Round(2),
			EstimatedTime: in.EstimatedTime,
			Message:       in.Message,
			Status:        models.BidSubmitted,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "bid placed", "bid_id", bid.ID, "project_id", bid.ProjectID, "seller_id", caller.UserID)
	return bid, nil
}

// SelectBid lets the project's buyer pick a winning bid. The project moves
// to IN_PROGRESS and every other bid is rejected.
func (s *MarketService) SelectBid(ctx context.Context, caller Principal, projectID, bidID string) (*models.Project, error) {
	if bidID == "" {
		return nil, fail(common.ErrValidation, "Bid is required")
	}

	var out *models.Project
	err := s.repomanager.WithinTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		p, err := r.Projects().Get(ctx, projectID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fail(common.ErrNotFound, "Project not found")
			}
			return err
		}
		if caller.Role != models.RoleBuyer || p.BuyerID != caller.UserID {
			return fail(common.ErrForbidden, "Only the project owner can select a bid")
		}
		if p.Status != models.ProjectPending {
			return fail(common.ErrConflict, "A bid has already been selected for this project")
		}

		var sellerID string
		for _, b := range p.Bids {
			if b.ID == bidID {
				sellerID = b.SellerID
			}
		}
		if sellerID == "" {
			return fail(common.ErrNotFound, "Bid not found for this project")
		}

		if err := r.Projects().Assign(ctx, projectID, bidID, sellerID); err != nil {
			return err
		}
		out, err = r.Projects().Get(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "bid selected", "project_id", projectID, "bid_id", bidID)
	return out, nil
}

// CompleteProject stores the seller's deliverable and marks the project and
// the winning bid COMPLETED. Only the seller of the selected bid may do it.
func (s *MarketService) CompleteProject(ctx context.Context, caller Principal, projectID, bidID string, doc Upload) (*models.Project, error) {
	if caller.Role != models.RoleSeller {
		return nil, fail(common.ErrForbidden, "Only sellers can complete projects")
	}
	if len(doc.Body) == 0 {
		return nil, fail(common.ErrValidation, "Please upload a document")
	}

	p, err := s.repomanager.Projects().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fail(common.ErrNotFound, "Project not found")
		}
		return nil, err
	}
	if err := checkCompletable(p, caller, bidID); err != nil {
		return nil, err
	}

	key := documents.NewKey(projectID, doc.Name)
	if err := s.documents.Put(ctx, key, doc.ContentType, doc.Body); err != nil {
		return nil, fmt.Errorf("error storing document: %w", err)
	}

	var out *models.Project
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		p, err := r.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		if err := checkCompletable(p, caller, bidID); err != nil {
			return err
		}
		if err := r.Projects().Complete(ctx, projectID, bidID, key); err != nil {
			return err
		}
		out, err = r.Projects().Get(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "project completed", "project_id", projectID, "bid_id", bidID, "document", key)
	return out, nil
}

func checkCompletable(p *models.Project, caller Principal, bidID string) error {
	if p.SelectedBid == nil || *p.SelectedBid != bidID || p.SellerID == nil || *p.SellerID != caller.UserID {
		return fail(common.ErrForbidden, "Only the selected seller can complete this project")
	}
	if p.Status != models.ProjectInProgress {
		return fail(common.ErrConflict, "Project is not in progress")
	}
	return nil
}

// Document opens the deliverable of a completed project for its buyer or
// seller. When the store can presign, link is set instead of body.
func (s *MarketService) Document(ctx context.Context, caller Principal, projectID string) (body io.ReadCloser, contentType, link string, err error) {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, "", "", err
	}
	involved := p.BuyerID == caller.UserID || (p.SellerID != nil && *p.SellerID == caller.UserID)
	if !involved {
		return nil, "", "", fail(common.ErrForbidden, "Not your project")
	}
	if p.DocumentKey == nil {
		return nil, "", "", fail(common.ErrNotFound, "No document uploaded yet")
	}

	if ps, ok := s.documents.(documents.Presigner); ok {
		link, err = ps.PresignGet(ctx, *p.DocumentKey)
		return nil, "", link, err
	}
	body, contentType, err = s.documents.Get(ctx, *p.DocumentKey)
	if errors.Is(err, common.ErrNotFound) {
		return nil, "", "", fail(common.ErrNotFound, "Document not found")
	}
	return body, contentType, "", err
}

func validDeadline(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
