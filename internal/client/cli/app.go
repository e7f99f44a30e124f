package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/client/client"
	"github.com/dmitrijs2005/bidmarket/internal/client/config"
	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/services"
	"github.com/dmitrijs2005/bidmarket/internal/client/session"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/redis/go-redis/v9"
)

// App is one running client: the terminal counterpart of a browser tab.
type App struct {
	config   *config.Config
	log      logging.Logger
	store    *session.Store
	api      client.Client
	auth     *services.AuthFlow
	nav      *services.Navigator
	projects services.ProjectService
	selector *services.BidSelector

	// board is the seller's completion board, rebuilt by "mybids".
	board *services.CompletionBoard
	// bids keeps one bid form per project so a failed submission can be
	// retried with the values already entered.
	bids map[string]*services.BidSubmitter

	reader *bufio.Reader

	outMu sync.Mutex
	out   io.Writer
	route services.Route

	closers []func() error
}

// NewApp opens the session database, connects the change notifier and wires
// the services against the REST API named in cfg.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, cfg.StoragePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", cfg.StoragePath, "error", err)
		return nil, err
	}
	repos := client.NewRepositories(db)

	a := &App{
		config: cfg,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		route:  services.RouteHome,
	}
	a.closers = append(a.closers, db.Close)

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeNotifier)

	store := session.NewStore(repos.KV, session.WithNotifier(notifier), session.WithLogger(log))
	if err := store.Start(ctx); err != nil {
		log.Warn(ctx, "session changes from other windows will not be seen", "error", err)
	}
	a.closers = append(a.closers, store.Close)

	api, err := client.NewHTTPClient(cfg.APIBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithTokenSource(client.TokenSourceFunc(store.Token)),
		client.WithUnauthorizedHandler(func(ctx context.Context) { a.auth.SessionExpired(ctx) }),
		client.WithLogger(log),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.wire(ctx, api, store)

	if dropped, err := store.DropExpired(ctx, time.Now()); err != nil {
		log.Warn(ctx, "failed to drop expired session", "error", err)
	} else if dropped {
		a.notice(models.Notice{Level: models.NoticeWarning, Message: "Your session has expired. Please log in again."})
	}

	return a, nil
}

// newNotifier returns the cross-process notifier selected by cfg and the
// function releasing it.
func newNotifier(cfg *config.Config, log logging.Logger) (session.Notifier, func() error, error) {
	switch cfg.Notifier {
	case config.NotifierRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		n := session.NewRedisNotifier(rdb, cfg.RedisChannel, log)
		return n, func() error {
			return errors.Join(n.Close(), rdb.Close())
		}, nil
	case config.NotifierFile:
		n, err := session.NewFileNotifier(cfg.SignalPath(), log)
		if err != nil {
			return nil, nil, err
		}
		return n, n.Close, nil
	default:
		h := session.NewHub()
		return h, h.Close, nil
	}
}

// wire builds the services on top of api and store.
func (a *App) wire(ctx context.Context, api client.Client, store *session.Store) {
	a.api = api
	a.store = store
	a.bids = make(map[string]*services.BidSubmitter)
	a.auth = services.NewAuthFlow(api, store,
		services.WithNotices(a.notice),
		services.WithRedirect(a.setRoute),
		services.WithAuthLogger(a.log),
	)
	a.nav = services.NewNavigator(ctx, store, a.sessionChanged)
	a.projects = services.NewProjectService(api, store)
	a.selector = services.NewBidSelector(api, store, a.notice, nil)
	a.closers = append(a.closers, func() error { a.nav.Close(); return nil })
}

// Run starts the REPL on the app's input and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	a.printf("Welcome to the marketplace CLI (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

// Close releases everything NewApp opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.nav.Session().Present()
}

func (a *App) links() services.Links {
	return a.nav.Links()
}

// status is the prompt decoration: the signed-in user and role, or guest.
func (a *App) status() string {
	s := a.nav.Session()
	if !s.Present() {
		return "(guest)"
	}
	return fmt.Sprintf("(%s %s)", s.Profile.Name, s.Role)
}

func (a *App) setRoute(r services.Route) {
	a.outMu.Lock()
	a.route = r
	a.outMu.Unlock()
}

func (a *App) currentRoute() services.Route {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.route
}

// open applies the route guard and, when allowed, makes r the current view.
func (a *App) open(r services.Route) error {
	if err := a.nav.Allow(r); err != nil {
		a.printf("Access denied: %v\n", err)
		return err
	}
	a.setRoute(r)
	return nil
}

// sessionChanged runs for every store change. Changes made by another
// window are announced since they happen behind the user's back.
func (a *App) sessionChanged(_ services.Links, ev session.Event) {
	if !ev.Remote {
		return
	}
	if ev.Session.Present() {
		a.printf("\nSession changed in another window: signed in as %s (%s)\n", ev.Session.Profile.Name, ev.Session.Role)
		return
	}
	a.setRoute(services.RouteHome)
	a.printf("\nSigned out in another window\n")
}

func (a *App) notice(n models.Notice) {
	a.printf("[%s] %s\n", n.Level, n.Message)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
