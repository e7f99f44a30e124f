package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bidmarket/internal/client/client"
	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/common"
)

// ProjectService answers the listing and dashboard queries.
//
// Contract:
//   - List: the public project listing.
//   - Get: one project of the public listing.
//   - Create: post a new project (buyers).
//   - Profile: the signed-in user's details and dashboard counters.
//   - SellerBoard: the seller's bids paired with their projects.
type ProjectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, p models.NewProject) (*models.Project, error)
	Profile(ctx context.Context) (*Profile, error)
	SellerBoard(ctx context.Context) ([]CompletionRow, error)
}

// Profile is the profile page: details plus counters over created projects.
type Profile struct {
	Details *models.UserDetails
	Stats   models.DashboardStats
}

type projectService struct {
	client   client.Client
	sessions SessionReader
}

func NewProjectService(c client.Client, sessions SessionReader) ProjectService {
	return &projectService{client: c, sessions: sessions}
}

func (s *projectService) List(ctx context.Context) ([]models.Project, error) {
	return s.client.ListProjects(ctx)
}

// Get looks the project up in the public listing; the API has no
// single-project endpoint.
func (s *projectService) Get(ctx context.Context, id string) (*models.Project, error) {
	ps, err := s.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ps {
		if ps[i].ID == id {
			return &ps[i], nil
		}
	}
	return nil, fmt.Errorf("%w: project %s", common.ErrNotFound, id)
}

func (s *projectService) Create(ctx context.Context, p models.NewProject) (*models.Project, error) {
	sess := s.sessions.Load(ctx)
	if err := Guard(sess, RouteCreateProject); err != nil {
		return nil, err
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Deadline = strings.TrimSpace(p.Deadline)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.client.CreateProject(ctx, p)
}

func (s *projectService) Profile(ctx context.Context) (*Profile, error) {
	if err := Guard(s.sessions.Load(ctx), RouteProfile); err != nil {
		return nil, err
	}
	d, err := s.client.Details(ctx)
	if err != nil {
		return nil, err
	}
	return &Profile{Details: d, Stats: models.Stats(d.ProjectsCreated)}, nil
}

// SellerBoard pairs each of the seller's bids with its project, taken from
// the projects the seller works on or, failing that, inferred from the bid.
func (s *projectService) SellerBoard(ctx context.Context) ([]CompletionRow, error) {
	if err := Guard(s.sessions.Load(ctx), RouteSellerBids); err != nil {
		return nil, err
	}
	d, err := s.client.Details(ctx)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]models.Project, len(d.ProjectsTaken))
	for _, p := range d.ProjectsTaken {
		taken[p.ID] = p
	}

	rows := make([]CompletionRow, 0, len(d.Bids))
	for _, b := range d.Bids {
		p, ok := taken[b.ProjectID]
		if !ok {
			p = models.Project{ID: b.ProjectID, Status: projectStatusFor(b.Status)}
		}
		rows = append(rows, CompletionRow{Bid: b, Project: p})
	}
	return rows, nil
}

func projectStatusFor(s models.BidStatus) models.ProjectStatus {
	switch s {
	case models.BidSelected:
		return models.ProjectInProgress
	case models.BidCompleted:
		return models.ProjectCompleted
	default:
		return models.ProjectPending
	}
}
