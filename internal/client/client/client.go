package client

import (
	"context"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
)

//go:generate mockgen -source=client.go -destination=mock_client.go -package=client

// Client is the marketplace REST API as seen by the client application.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	RequestOTP(ctx context.Context, reg models.Registration) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (*models.AuthResult, error)
	Details(ctx context.Context) (*models.UserDetails, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error)
	SubmitBid(ctx context.Context, b models.NewBid) (*models.Bid, error)
	SelectBid(ctx context.Context, projectID, bidID string) (*models.Project, error)
	CompleteProject(ctx context.Context, projectID, bidID string, doc models.Document) (*models.Project, error)
}

// TokenSource yields the bearer token for authenticated calls. An empty
// string means there is no session.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) string

func (f TokenSourceFunc) Token(ctx context.Context) string { return f(ctx) }
