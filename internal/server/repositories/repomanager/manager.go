package repomanager

import (
	"context"

	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/projects"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/users"
)

// Repos is a set of repositories bound to one database handle.
type Repos interface {
	Users() users.Repository
	Registrations() registrations.Repository
	Projects() projects.Repository
}

// RepositoryManager vends repositories outside and inside transactions.
type RepositoryManager interface {
	Repos
	// WithinTx runs fn with repositories that share one transaction; an error
	// from fn rolls it back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
