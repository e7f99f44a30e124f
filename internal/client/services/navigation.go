package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/session"
	"github.com/dmitrijs2005/bidmarket/internal/common"
)

// Route names a view of the application.
type Route string

const (
	RouteHome            Route = "/"
	RouteProjects        Route = "/projects"
	RouteProfile         Route = "/profile"
	RouteBuyerDashboard  Route = "/dashboard/buyer"
	RouteCreateProject   Route = "/dashboard/buyer/projects/create"
	RouteSellerDashboard Route = "/dashboard/seller"
	RouteSellerBids      Route = "/dashboard/seller/bids"
)

// Links is the set of navigation entries visible for a session.
type Links struct {
	BuyerDashboard  bool
	SellerDashboard bool
	Profile         bool
	Logout          bool
	Login           bool
	Register        bool
}

// VisibleLinks derives the navigation entries. Visitors see both dashboards;
// a signed-in user sees only the dashboard of their own role.
func VisibleLinks(s models.Session) Links {
	present := s.Present()
	return Links{
		BuyerDashboard:  !present || s.Role == models.RoleBuyer,
		SellerDashboard: !present || s.Role == models.RoleSeller,
		Profile:         present,
		Logout:          present,
		Login:           !present,
		Register:        !present,
	}
}

// Guard reports whether s may open r. Denials wrap common.ErrAuthorization.
func Guard(s models.Session, r Route) error {
	var need models.Role
	switch r {
	case RouteHome, RouteProjects:
		return nil
	case RouteProfile:
	case RouteBuyerDashboard, RouteCreateProject:
		need = models.RoleBuyer
	case RouteSellerDashboard, RouteSellerBids:
		need = models.RoleSeller
	default:
		return fmt.Errorf("%w: unknown route %s", common.ErrNotFound, r)
	}

	if !s.Present() {
		return common.ErrAuthorization
	}
	if need != "" && s.Role != need {
		return fmt.Errorf("%w: %s is for %s accounts", common.ErrAuthorization, r, need)
	}
	return nil
}

// SessionSource is the part of the session store the navigator watches.
type SessionSource interface {
	SessionReader
	Subscribe(l session.Listener) func()
}

// Navigator keeps the visible links in step with the stored session,
// including changes made by other processes.
type Navigator struct {
	onChange func(Links, session.Event)

	mu          sync.Mutex
	session     models.Session
	links       Links
	unsubscribe func()
}

// NewNavigator loads the current session and subscribes to changes. onChange
// may be nil.
func NewNavigator(ctx context.Context, src SessionSource, onChange func(Links, session.Event)) *Navigator {
	n := &Navigator{onChange: onChange}
	unsubscribe := src.Subscribe(n.handle)
	n.apply(src.Load(ctx))
	n.mu.Lock()
	n.unsubscribe = unsubscribe
	n.mu.Unlock()
	return n
}

func (n *Navigator) handle(ev session.Event) {
	links := n.apply(ev.Session)
	if n.onChange != nil {
		n.onChange(links, ev)
	}
}

func (n *Navigator) apply(s models.Session) Links {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.session = s
	n.links = VisibleLinks(s)
	return n.links
}

func (n *Navigator) Links() Links {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.links
}

func (n *Navigator) Session() models.Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.session
}

// Allow applies Guard to the navigator's current session.
func (n *Navigator) Allow(r Route) error {
	return Guard(n.Session(), r)
}

func (n *Navigator) Close() {
	n.mu.Lock()
	unsubscribe := n.unsubscribe
	n.unsubscribe = nil
	n.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
